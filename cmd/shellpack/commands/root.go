// Package commands implements the CLI commands for shellpack.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/moxforge/shellpack/cmd"
	"github.com/moxforge/shellpack/internal/config"
	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/wizard"
)

// cliState holds flag values and what PersistentPreRunE builds from them.
type cliState struct {
	verbosity  int
	dryRun     bool
	logFormat  string
	logFile    string
	configPath string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error

	// sessionOpts are appended to every wizard session.
	sessionOpts []wizard.Option
}

func (st *cliState) close() {
	if st.closeLog != nil {
		_ = st.closeLog()
		st.closeLog = nil
	}
}

// session builds the wizard session for a backup or restore run.
func (st *cliState) session(c *cobra.Command, extra ...wizard.Option) *wizard.Session {
	opts := []wizard.Option{
		wizard.WithIO(c.InOrStdin(), c.OutOrStdout(), c.ErrOrStderr()),
		wizard.WithLogger(st.logger),
		wizard.WithVersion(cmd.Version),
	}
	opts = append(opts, extra...)
	opts = append(opts, st.sessionOpts...)
	return wizard.New(st.cfg, opts...)
}

// newRootCmd assembles the command tree. Options are passed to every wizard
// session, which lets tests script input and processes.
func newRootCmd(opts ...wizard.Option) (*cobra.Command, *cliState) {
	st := &cliState{sessionOpts: opts}

	root := &cobra.Command{
		Use:   "shellpack",
		Short: "Back up and restore your shell environment through Git",
		Long: `shellpack backs up a shell environment to a Git repository and restores it
on another machine.

A backup holds shell dotfiles (fish, bash, zsh, Oh-My-Zsh), the installed
package list, Starship and Git configuration, SSH keys, Conda environments,
shell history and cloud CLI credentials. A shareable backup leaves out
everything sensitive.

Both commands run an interactive wizard.`,
		Example: `  # Create a backup
  shellpack backup

  # Preview a restore without changing anything
  shellpack restore --dry-run

  # Pick the backup with a fuzzy finder
  shellpack restore --fuzzy`,
		Version: cmd.Version,
		// Subcommand names are matched by cobra; anything else lands here.
		Args: cobra.ArbitraryArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.NewUserError(errors.Newf("Unknown command: %s", args[0]), "run 'shellpack --help' for usage")
			}
			return c.Help()
		},
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			switch c.Name() {
			case "shellpack", "help", "version", "gen-doc":
				return nil
			}
			return st.setup(c)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetVersionTemplate("shellpack version {{.Version}}\n")
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.CountVarP(&st.verbosity, "verbose", "v", "increase verbosity level (e.g., -v, -vv)")
	pf.BoolVar(&st.dryRun, "dry-run", false, "show what would be done without changing anything")
	pf.StringVar(&st.logFormat, "log-format", "", "stderr log format: text, json")
	pf.StringVar(&st.logFile, "log-file", "", "append JSON logs to this file (default: a new file per run in the state directory)")
	pf.StringVar(&st.configPath, "config", "", "config file (default: ./config.yaml or $XDG_CONFIG_HOME/shellpack/config.yaml)")

	root.AddCommand(newBackupCmd(st), newRestoreCmd(st), newVersionCmd(), newGenDocCmd())
	return root, st
}

// setup loads the config, applies flag overrides and builds the logger.
func (st *cliState) setup(c *cobra.Command) error {
	config.Init()
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return errors.NewUserError(err, "check the config file")
	}

	flags := c.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = st.dryRun
	}
	if st.verbosity > 0 {
		cfg.Verbose = st.verbosity
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = st.logFormat
	}
	if flags.Changed("log-file") {
		cfg.LogFile = paths.Expand(cfg.Home, st.logFile)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile(time.Now())
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return errors.NewUserError(errs[0], "check the command line flags")
	}
	st.cfg = cfg

	logger, closeLog, err := logging.Setup(logging.Options{
		Verbosity: cfg.Verbose,
		Format:    logging.Format(cfg.LogFormat),
		Stderr:    c.ErrOrStderr(),
		LogFiles:  []string{cfg.LogFile},
	})
	if err != nil {
		return errors.NewUserError(err, "failed to open log file")
	}
	st.logger = logger
	st.closeLog = closeLog
	slog.SetDefault(logger)

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c.SetContext(logging.NewContext(ctx, logger))

	logger.Info("shellpack started",
		"command", c.Name(),
		"version", cmd.Version,
		"dry_run", cfg.DryRun,
		"log_file", cfg.LogFile,
	)
	return nil
}

// defaultLogFile names the per-run log file in the state directory.
func defaultLogFile(now time.Time) string {
	return filepath.Join(paths.LogDir(), "shellpack_"+now.Format("20060102_150405")+".log")
}

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context) error {
	root, st := newRootCmd()
	return run(ctx, root, st)
}

func run(ctx context.Context, root *cobra.Command, st *cliState) error {
	err := root.ExecuteContext(ctx)
	st.close()
	report(root.ErrOrStderr(), err)
	return err
}

// report prints a failed run's error and, for an ExitError, its suggestion.
// Cancellations exit 0 and print nothing.
func report(w io.Writer, err error) {
	if errors.ExitCode(err) == errors.ExitSuccess {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		fmt.Fprintf(w, "Hint: %s\n", exitErr.Suggestion)
	}
}
