package cli

import (
	"io"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/config"
	"github.com/pfrederiksen/nyrr-watch/internal/logger"
	"github.com/pfrederiksen/nyrr-watch/internal/notifier"
	"github.com/pfrederiksen/nyrr-watch/internal/runner"
	"github.com/pfrederiksen/nyrr-watch/internal/scraper"
	"github.com/pfrederiksen/nyrr-watch/internal/storage"
	"github.com/pfrederiksen/nyrr-watch/internal/telegram"
)

// setupLogger installs the default logger for a command
func setupLogger(cfg *config.Config, verbose bool, w io.Writer) {
	level := logger.ParseLevel(cfg.Log.Level)
	if verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.NewWithFormat(level, logger.Format(cfg.Log.Format), w))
}

func formatOptions(cfg *config.Config) telegram.Options {
	return telegram.Options{
		Limit:    cfg.Telegram.MaxMessageChars,
		Title:    cfg.Telegram.Title,
		Location: cfg.Location(),
	}
}

// buildNotifier creates one notifier per configured channel
func buildNotifier(cfg *config.Config, dryRunOut io.Writer) (notifier.Notifier, error) {
	var multi notifier.Multi
	for _, ch := range cfg.Notify.Channels {
		switch ch {
		case config.ChannelTelegram:
			client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, telegram.ClientOptions{
				APIURL:       cfg.Telegram.APIURL,
				SendInterval: cfg.Telegram.SendInterval,
			})
			if err != nil {
				return nil, errors.Wrap(err, "telegram")
			}
			multi = append(multi, notifier.NewTelegramNotifier(client, formatOptions(cfg)))
		case config.ChannelTwitter:
			t := cfg.Twitter
			n, err := notifier.NewTwitterNotifier(t.APIKey, t.APISecret, t.AccessToken, t.AccessSecret)
			if err != nil {
				return nil, errors.Wrap(err, "twitter")
			}
			multi = append(multi, n)
		case config.ChannelDryRun:
			multi = append(multi, notifier.NewDryRunNotifier(dryRunOut, formatOptions(cfg)))
		default:
			return nil, errors.Errorf("unknown notify channel %q", ch)
		}
	}

	if len(multi) == 1 {
		return multi[0], nil
	}
	return multi, nil
}

// app holds everything a run needs; Close releases the store
type app struct {
	runner *runner.Runner
	store  storage.Store
}

func (a *app) Close() error {
	return a.store.Close()
}

func buildApp(cfg *config.Config, opts runner.Options, dryRunOut io.Writer) (*app, error) {
	sc, err := scraper.New(scraper.Options{
		URL:     cfg.Source.URL,
		Mode:    cfg.Source.Mode,
		Header:  cfg.Table.Header,
		Timeout: cfg.Source.Timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing scraper")
	}

	var n notifier.Notifier
	if !opts.Refresh {
		if n, err = buildNotifier(cfg, dryRunOut); err != nil {
			return nil, errors.Wrap(err, "initializing notifier")
		}
	}

	store, err := storage.Open(cfg.StorageConfig())
	if err != nil {
		return nil, errors.Wrap(err, "initializing storage")
	}

	opts.OnlyOnChange = cfg.Notify.OnlyOnChange
	return &app{runner: runner.New(opts, sc, store, n), store: store}, nil
}
