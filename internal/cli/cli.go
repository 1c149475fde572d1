package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/nyrr-watch/internal/config"
	"github.com/pfrederiksen/nyrr-watch/internal/logger"
	"github.com/pfrederiksen/nyrr-watch/internal/runner"
	"github.com/pfrederiksen/nyrr-watch/internal/scraper"
	"github.com/pfrederiksen/nyrr-watch/internal/table"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitChanges = 2
)

// exitCode carries a non-error exit status out of a command
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

type options struct {
	configPath string
	verbose    bool
	format     string
	dryRun     bool
	refresh    bool
	html       bool
	header     string
	runNow     bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "nyrr-watch",
		Short: "Watch the NYRR race schedule table for changes",
		Long: `A CLI tool that polls a page containing the NYRR race schedule table,
compares it with the previous snapshot and notifies when races change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config (or env: CONFIG_PATH)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newCheckCmd(opts),
		newWatchCmd(opts),
		newParseCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one check and notify about changes",
		Long: `Fetch the schedule once, compare it with the stored snapshot, notify and
store the new snapshot. Exits 2 when races changed, 0 when nothing changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print messages instead of sending; do not save the snapshot")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "Refresh snapshot without notifying")
	return cmd
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	if format != FormatText && format != FormatJSON {
		return "", errors.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// loadConfig reads and validates configuration, applying dry-run overrides first
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dryRun {
		cfg.Notify.Channels = []string{config.ChannelDryRun}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runCheck is the main command logic
func runCheck(cmd *cobra.Command, opts *options) error {
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	setupLogger(cfg, opts.verbose, cmd.ErrOrStderr())

	// Keep stdout parseable when printing JSON
	dryRunOut := cmd.OutOrStdout()
	if format == FormatJSON {
		dryRunOut = cmd.ErrOrStderr()
	}

	a, err := buildApp(cfg, runner.Options{Refresh: opts.refresh, ReadOnly: opts.dryRun}, dryRunOut)
	if err != nil {
		return err
	}
	defer a.Close() // nolint:errcheck

	res, err := a.runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("Check complete", a.runner.Metrics().Fields())

	if err := WriteOutput(cmd.OutOrStdout(), NewOutputResult(res, opts.refresh), format, opts.verbose); err != nil {
		return errors.Wrap(err, "writing output")
	}

	if res.HasChanges() && !opts.refresh {
		return exitCode(ExitChanges)
	}
	return nil
}

func newParseCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Extract the race table from a saved page or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(opts.format)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, "opening input")
				}
				defer f.Close() // nolint:errcheck
				in = f
			}

			var text string
			if opts.html || (len(args) == 1 && isHTMLFile(args[0])) {
				text, err = scraper.RenderTables(in)
				if err != nil {
					return err
				}
			} else {
				data, err := io.ReadAll(in)
				if err != nil {
					return errors.Wrap(err, "reading input")
				}
				text = string(data)
			}

			return WriteRaces(cmd.OutOrStdout(), table.Extract(text, opts.header), format)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.html, "html", false, "Treat input as HTML and read its tables")
	cmd.Flags().StringVar(&opts.header, "header", table.DefaultHeader, "Header row that starts the table")
	return cmd
}

func isHTMLFile(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm")
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			return nil
		},
	}
}

// Run executes the CLI with args and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var code exitCode
	if errors.As(err, &code) {
		return int(code)
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}

// Execute runs the CLI
func Execute(ctx context.Context) {
	os.Exit(Run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}
