package restore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/moxforge/shellpack/internal/conda"
	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/rollback"
	"github.com/moxforge/shellpack/internal/status"
	"github.com/moxforge/shellpack/internal/wizard"
)

// DefaultShellsFile lists the login shells chsh accepts.
const DefaultShellsFile = "/etc/shells"

// Orchestrator runs the restore wizard against one Session.
type Orchestrator struct {
	s          *wizard.Session
	shellsFile string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithShellsFile overrides the login shells file.
func WithShellsFile(path string) Option {
	return func(o *Orchestrator) {
		o.shellsFile = path
	}
}

// New creates an Orchestrator.
func New(s *wizard.Session, opts ...Option) *Orchestrator {
	o := &Orchestrator{s: s, shellsFile: DefaultShellsFile}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run walks the wizard from dependency checks to setting the default shell.
// Declining the confirmation returns an error carrying exit code 0.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	s := o.s
	p := s.Printer

	p.Banner(s.Version)
	p.Header("Restore Shell Environment")

	if err := s.CheckDependencies(); err != nil {
		return nil, err
	}
	env := s.ShowEnvironment()

	url, err := s.CollectRepoURL("Enter the Git repository URL where your backups are stored.")
	if err != nil {
		return nil, err
	}
	out := &Outcome{RepoURL: url}

	p.Section("Fetching Backups")
	p.Blank()

	ws, err := s.Acquire()
	if err != nil {
		return out, err
	}
	defer func() {
		if rerr := ws.Release(context.WithoutCancel(ctx)); rerr != nil {
			s.Logger().Warn("workspace cleanup failed", "dir", ws.Dir(), "error", rerr)
		}
	}()
	s.CheckDiskSpace(ws.Dir())

	if err := s.VerifySSH(ctx, url); err != nil {
		return out, err
	}

	repo := ws.Path("git")
	p.Hint("Cloning repository...")
	if err := s.Git.Clone(ctx, url, repo, 1); err != nil {
		p.Error("Failed to clone repository")
		return out, errors.NewUserError(err, "check the URL and your access to the repository")
	}
	p.Status(status.OK, "Repository cloned")

	names, err := ListBackups(repo)
	if err != nil {
		p.Error("Failed to list backups")
		return out, errors.NewUserError(err, "check that the repository has a backups/ directory")
	}
	if len(names) == 0 {
		p.Error("No backups found in repository")
		return out, errors.NewUserError(errors.ErrNoBackups, "run 'shellpack backup' first")
	}
	p.Status(status.OK, fmt.Sprintf("Found %d backup(s)", len(names)))

	name, err := o.selectBackup(repo, names)
	if err != nil {
		if isCancelled(err) {
			p.Line("%s", p.Yellow("Restore cancelled."))
			return out, errors.NewExitError(errors.ErrCancelled, errors.ExitSuccess)
		}
		return out, err
	}
	out.Backup = name
	dir := paths.BackupPath(repo, name)
	p.Status(status.Info, "Selected: "+name)

	o.showManifest(dir, out)

	p.Blank()
	if !s.Prompt.YesNo("Continue with restore?", true) {
		p.Line("%s", p.Yellow("Restore cancelled."))
		return out, errors.NewExitError(errors.ErrCancelled, errors.ExitSuccess)
	}

	journalDir, err := ws.Sub("rollback")
	if err != nil {
		return out, errors.NewUserError(err, "check that the workspace directory is writable")
	}
	a := &applier{
		src:     dir,
		home:    s.Home(),
		dryRun:  s.DryRun(),
		journal: rollback.NewJournal(journalDir),
		logger:  s.Logger(),
	}
	record := func(r status.Result) {
		out.Results = append(out.Results, r)
		p.Result(r)
	}

	record(o.handleSSH(a))

	p.Section("Shell Selection")
	p.Blank()
	out.Shells = AvailableShells(dir)
	p.Line("Shells available in backup:")
	for _, shell := range out.Shells {
		p.Item(shell)
	}
	out.DefaultShell = out.Shells[s.Prompt.Choice("Select default shell", out.Shells)-1]

	p.Section("Installing Components")
	p.Blank()
	for _, shell := range out.Shells {
		record(o.installShell(ctx, shell, env.PackageManager))
	}
	record(o.installStarship(ctx, ws))

	p.Section("Restoring Configurations")
	p.Blank()
	for _, shell := range out.Shells {
		record(a.shell(shell))
	}
	record(a.starship())
	record(a.gitConfig())
	record(o.configureCredentialHelper(ctx, env.OS))

	installDir := s.Config.Conda.InstallDir
	if installDir == "" {
		installDir = filepath.Join(s.Home(), "miniconda3")
	}
	h := &conda.Handler{Runner: s.Runner, Home: s.Home(), DryRun: s.DryRun()}
	record(h.Restore(ctx, conda.RestoreOptions{
		SrcDir:     filepath.Join(dir, paths.CondaDir),
		OS:         env.OS,
		Arch:       env.Arch,
		InstallDir: installDir,
		TempDir:    ws.Dir(),
	}))
	record(a.history())
	record(a.cloud())

	p.Section("Setting Default Shell")
	p.Blank()
	record(o.setDefaultShell(ctx, out.DefaultShell, env.User))

	o.logResults(out.Results)

	if out.Results.HasErrors() && a.journal.Stack.Len() > 0 {
		out.RolledBack = o.offerRollback(ctx, a.journal)
	}

	p.Complete("RESTORE COMPLETE!",
		"Your shell environment has been restored.",
		"",
		p.Yellow("Restart your terminal or run:"),
		p.Cyan("exec "+out.DefaultShell),
	)
	return out, nil
}

// offerRollback asks whether to undo the restored files. Declining keeps
// every change.
func (o *Orchestrator) offerRollback(ctx context.Context, j *rollback.Journal) bool {
	s := o.s
	p := s.Printer

	p.Blank()
	p.Warning("Some categories failed to restore")
	p.Hint("%s can be undone", j.Summary())
	if !s.Prompt.YesNo("Roll back restored files?", false) {
		return false
	}

	p.Section("Rolling Back Changes")
	p.Blank()
	if err := j.Stack.Execute(ctx); err != nil {
		s.Logger().Error("rollback incomplete", "error", err)
		p.Error("Rollback incomplete: " + err.Error())
		return true
	}
	p.Status(status.OK, "Rollback completed")
	return true
}

func (o *Orchestrator) logResults(rs status.Results) {
	logger := o.s.Logger()
	for _, r := range rs {
		switch r.Status {
		case status.Error:
			logger.Error("category failed", "category", r.Category, "message", r.Message, "error", r.Err)
		case status.Warn:
			logger.Warn("category degraded", "category", r.Category, "message", r.Message, "error", r.Err)
		default:
			logger.Debug("category done", "category", r.Category, "status", string(r.Status), "message", r.Message)
		}
	}
}

