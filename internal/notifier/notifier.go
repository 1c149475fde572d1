package notifier

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

// Update is one run's outcome as seen by a notification channel
type Update struct {
	CapturedAt time.Time
	Races      []race.Race
	Diff       *race.DiffResult
}

// Changed returns the changed races in current order
func (u *Update) Changed() []race.Race {
	if u == nil || u.Diff == nil {
		return nil
	}
	return u.Diff.Races()
}

// Notifier defines the interface for delivering an update
type Notifier interface {
	Notify(ctx context.Context, update *Update) error
}

// Multi fans an update out to several notifiers. Every notifier is tried;
// failures are joined.
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(ctx context.Context, update *Update) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, update); err != nil {
			errs = append(errs, errors.Wrapf(err, "notifier %d (%T)", i, n))
		}
	}
	return stderrors.Join(errs...)
}
