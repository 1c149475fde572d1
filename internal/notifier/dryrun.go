package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/telegram"
)

// DryRunNotifier prints the messages that would be sent without sending them
type DryRunNotifier struct {
	out  io.Writer
	opts telegram.Options
}

// NewDryRunNotifier creates a dry-run notifier writing to out (stdout when nil)
func NewDryRunNotifier(out io.Writer, opts telegram.Options) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out, opts: opts}
}

// Notify prints each payload with its length
func (n *DryRunNotifier) Notify(ctx context.Context, update *Update) error {
	i := 0
	for text := range telegram.Messages(update.CapturedAt, update.Races, update.Changed(), n.opts) {
		i++
		if _, err := fmt.Fprintf(n.out, "--- Message %d ---\n%s\n\n(Length: %d characters)\n\n",
			i, text, utf8.RuneCountInString(text)); err != nil {
			return errors.Wrapf(err, "writing message %d", i)
		}
	}
	return nil
}
