package telegram

import (
	"context"
	stderrors "errors"
	"iter"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/pfrederiksen/nyrr-watch/internal/logger"
)

const (
	// DefaultAPIURL is the public Bot API endpoint
	DefaultAPIURL = "https://api.telegram.org"
	timeout       = 10 * time.Second
)

// chatID addresses a chat by numeric ID or @channel username
type chatID string

func (c chatID) Recipient() string { return string(c) }

// ClientOptions tunes the transport
type ClientOptions struct {
	APIURL string
	// SendInterval is the minimum gap between two messages; zero disables pacing
	SendInterval time.Duration
}

// Client represents a Telegram Bot API client bound to one chat
type Client struct {
	bot     *tele.Bot
	chat    chatID
	limiter *rate.Limiter
}

// NewClient creates a new Telegram client. No request is made until the first send.
func NewClient(botToken, chat string, opts ClientOptions) (*Client, error) {
	if botToken == "" {
		return nil, errors.New("bot token is required")
	}
	if chat == "" {
		return nil, errors.New("chat ID is required")
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}

	bot, err := tele.NewBot(tele.Settings{
		URL:     opts.APIURL,
		Token:   botToken,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating bot")
	}

	limit := rate.Inf
	if opts.SendInterval > 0 {
		limit = rate.Every(opts.SendInterval)
	}

	return &Client{
		bot:     bot,
		chat:    chatID(chat),
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// SendMessage sends one HTML message to the configured chat
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return errors.New("message text is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "waiting to send")
	}

	_, err := c.bot.Send(c.chat, text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return nil
}

// SendAll sends every payload in order. A failed payload does not stop the
// rest; all failures are returned joined. Cancelling ctx stops the loop.
func (c *Client) SendAll(ctx context.Context, messages iter.Seq[string]) error {
	var errs []error
	i := 0
	for text := range messages {
		i++
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.SendMessage(ctx, text); err != nil {
			logger.Warn("Telegram payload failed", logger.Fields{
				"payload": i,
				"length":  len([]rune(text)),
			})
			errs = append(errs, errors.Wrapf(err, "payload %d", i))
			continue
		}
		logger.Debug("Telegram payload sent", logger.Fields{"payload": i})
	}
	return stderrors.Join(errs...)
}
