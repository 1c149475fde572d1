package notifier

import (
	"context"
	"iter"

	"github.com/pfrederiksen/nyrr-watch/internal/telegram"
)

// sender is the part of telegram.Client the notifier needs
type sender interface {
	SendAll(ctx context.Context, messages iter.Seq[string]) error
}

// TelegramNotifier sends the full header, listing and changes sequence to one chat
type TelegramNotifier struct {
	client sender
	opts   telegram.Options
}

// NewTelegramNotifier wraps a Telegram client
func NewTelegramNotifier(client sender, opts telegram.Options) *TelegramNotifier {
	return &TelegramNotifier{client: client, opts: opts}
}

// Notify sends every payload in order
func (n *TelegramNotifier) Notify(ctx context.Context, update *Update) error {
	return n.client.SendAll(ctx, telegram.Messages(update.CapturedAt, update.Races, update.Changed(), n.opts))
}
