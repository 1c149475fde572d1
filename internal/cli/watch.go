package cli

import (
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/nyrr-watch/internal/logger"
	"github.com/pfrederiksen/nyrr-watch/internal/runner"
)

// cronLogger routes cron's internal messages to the structured logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, kvFields(keysAndValues), err)
}

func kvFields(kv []interface{}) logger.Fields {
	f := logger.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}

func newWatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run checks on the configured schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print messages instead of sending; do not save the snapshot")
	cmd.Flags().BoolVar(&opts.runNow, "now", true, "Run one check immediately on start")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	setupLogger(cfg, opts.verbose, cmd.ErrOrStderr())

	a, err := buildApp(cfg, runner.Options{ReadOnly: opts.dryRun}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close() // nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	check := func() {
		res, err := a.runner.Run(ctx)
		if err != nil {
			return // already logged by the runner
		}
		logger.Info("Scheduled check complete", logger.Fields{
			"run_id":  res.RunID,
			"races":   len(res.Races),
			"changed": len(res.Diff.Changes),
		})
	}

	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	if _, err := c.AddFunc(cfg.Schedule, check); err != nil {
		return err
	}

	if opts.runNow {
		check()
	}

	c.Start()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	logger.Info("Watching for schedule changes", logger.Fields{
		"schedule": cfg.Schedule,
		"source":   cfg.Source.URL,
		"storage":  cfg.Storage.Driver,
	})

	<-ctx.Done()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	logger.Info("Shutting down", logger.Fields{"metrics": a.runner.Metrics().GetSnapshot()})
	<-c.Stop().Done()
	return nil
}
