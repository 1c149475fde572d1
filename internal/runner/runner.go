package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/logger"
	"github.com/pfrederiksen/nyrr-watch/internal/notifier"
	"github.com/pfrederiksen/nyrr-watch/internal/race"
	"github.com/pfrederiksen/nyrr-watch/internal/storage"
)

// Fetcher yields the current race table
type Fetcher interface {
	FetchRaces(ctx context.Context) ([]race.Race, error)
}

// Options controls a run
type Options struct {
	// OnlyOnChange skips notification when the diff is empty
	OnlyOnChange bool
	// Refresh stores the current table without notifying
	Refresh bool
	// ReadOnly never writes the snapshot
	ReadOnly bool

	Metrics *logger.Metrics
	Now     func() time.Time
}

// Result describes what one run saw and did
type Result struct {
	RunID      string           `json:"run_id"`
	CapturedAt time.Time        `json:"captured_at"`
	Races      []race.Race      `json:"races"`
	Checksum   string           `json:"checksum"`
	Previous   *race.Snapshot   `json:"-"`
	Diff       *race.DiffResult `json:"diff"`
	Notified   bool             `json:"notified"`
	Saved      bool             `json:"saved"`
}

// HasChanges reports whether any race changed
func (r *Result) HasChanges() bool {
	return r != nil && r.Diff != nil && r.Diff.HasChanges()
}

// Runner wires the collaborators of a run together
type Runner struct {
	fetcher  Fetcher
	store    storage.Store
	notifier notifier.Notifier
	opts     Options
}

// New creates a runner. A nil notifier is only valid with Refresh.
func New(opts Options, fetcher Fetcher, store storage.Store, n notifier.Notifier) *Runner {
	if opts.Metrics == nil {
		opts.Metrics = logger.NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{fetcher: fetcher, store: store, notifier: n, opts: opts}
}

// Metrics returns the run counters and timings
func (r *Runner) Metrics() *logger.Metrics {
	return r.opts.Metrics
}

// Run performs one cycle. Nothing is saved when notification fails, so the
// next run detects the same changes again.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	m := r.opts.Metrics
	m.IncrCounter("runs")

	res, err := r.run(ctx)
	if err != nil {
		m.IncrCounter("runs.failed")
		logger.Error("Run failed", logger.Fields{"run_id": res.RunID}, err)
		return res, err
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context) (*Result, error) {
	m := r.opts.Metrics
	res := &Result{RunID: uuid.NewString(), CapturedAt: r.opts.Now()}
	log := logger.Default().With(logger.Fields{"run_id": res.RunID})

	start := time.Now()
	races, err := r.fetcher.FetchRaces(ctx)
	m.Since("fetch", start)
	if err != nil {
		return res, errors.Wrap(err, "fetching races")
	}
	res.Races = races
	res.Checksum = race.Checksum(races)
	m.SetGauge("races", float64(len(races)))
	log.Info("Fetched race table", logger.Fields{"races": len(races), "checksum": res.Checksum})

	prev, err := r.store.Load(ctx)
	if err != nil {
		return res, errors.Wrap(err, "loading snapshot")
	}
	res.Previous = prev

	if len(races) == 0 && prev.Len() > 0 {
		log.Warn("No races parsed; previous snapshot will be replaced", logger.Fields{"previous": prev.Len()})
	}

	res.Diff = race.Diff(prev, races)
	changed := len(res.Diff.Changes)
	m.AddCounter("races.changed", int64(changed))
	log.Info("Compared with previous snapshot", logger.Fields{
		"reason":  string(res.Diff.Reason),
		"changed": changed,
	})

	if err := r.notify(ctx, res); err != nil {
		return res, err
	}

	if r.opts.ReadOnly {
		return res, nil
	}

	start = time.Now()
	err = r.store.Save(ctx, race.NewSnapshot(races, res.CapturedAt))
	m.Since("save", start)
	if err != nil {
		return res, errors.Wrap(err, "saving snapshot")
	}
	res.Saved = true
	log.Debug("Snapshot saved", nil)

	return res, nil
}

func (r *Runner) notify(ctx context.Context, res *Result) error {
	switch {
	case r.opts.Refresh:
		return nil
	case r.opts.OnlyOnChange && !res.Diff.HasChanges():
		return nil
	case r.notifier == nil:
		return errors.New("no notifier configured")
	}

	start := time.Now()
	err := r.notifier.Notify(ctx, &notifier.Update{
		CapturedAt: res.CapturedAt,
		Races:      res.Races,
		Diff:       res.Diff,
	})
	r.opts.Metrics.Since("notify", start)
	if err != nil {
		return errors.Wrap(err, "notifying")
	}
	res.Notified = true
	return nil
}
