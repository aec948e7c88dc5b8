// Package wizard holds the state and steps shared by the backup and restore
// wizards: dependency checks, environment detection, the repository prompt
// and SSH verification.
package wizard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/moxforge/shellpack/internal/cli/prompt"
	"github.com/moxforge/shellpack/internal/config"
	"github.com/moxforge/shellpack/internal/doctor"
	"github.com/moxforge/shellpack/internal/environment"
	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/git"
	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/runner"
	"github.com/moxforge/shellpack/internal/status"
	"github.com/moxforge/shellpack/internal/ui"
	"github.com/moxforge/shellpack/internal/workspace"
)

// Session carries the collaborators of one wizard run.
type Session struct {
	Config  *config.Config
	Runner  runner.Runner
	Prompt  *prompt.Prompter
	Printer *ui.Printer
	Git     *git.Client
	Version string
	Now     func() time.Time
	// Fuzzy selects backups with the fuzzy finder instead of a numbered list.
	Fuzzy bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
	detect func(environment.LookPathFunc) environment.Info
	env    *environment.Info
}

// Option configures a Session.
type Option func(*Session)

// WithRunner sets the command runner.
func WithRunner(r runner.Runner) Option {
	return func(s *Session) {
		s.Runner = r
	}
}

// WithIO sets the prompt input and the output writers.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(s *Session) {
		s.in, s.out, s.errOut = in, out, errOut
	}
}

// WithLogger sets the logger that mirrors status lines.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithEnvironment replaces host detection with a fixed snapshot.
func WithEnvironment(info environment.Info) Option {
	return func(s *Session) {
		s.detect = func(environment.LookPathFunc) environment.Info { return info }
	}
}

// WithClock sets the time source used for names and manifests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.Now = now
	}
}

// WithVersion sets the version shown in the banner and manifests.
func WithVersion(v string) Option {
	return func(s *Session) {
		s.Version = v
	}
}

// WithFuzzy enables the fuzzy backup picker.
func WithFuzzy(enabled bool) Option {
	return func(s *Session) {
		s.Fuzzy = enabled
	}
}

// New builds a Session for cfg. Without options it talks to the terminal and
// runs real processes.
func New(cfg *config.Config, opts ...Option) *Session {
	s := &Session{
		Config:  cfg,
		Runner:  runner.Exec{},
		Version: "dev",
		Now:     time.Now,
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
		detect:  environment.Detect,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewDiscard()
	}

	s.Prompt = prompt.NewWithIO(s.in, s.out, s.errOut)
	s.Printer = ui.New(s.out, s.errOut, s.logger)
	s.Git = git.New(s.Runner)
	return s
}

// Environment detects the host once and caches the result.
func (s *Session) Environment() environment.Info {
	if s.env == nil {
		info := s.detect(s.Runner.LookPath)
		s.env = &info
	}
	return *s.env
}

// DryRun reports whether mutations are suppressed.
func (s *Session) DryRun() bool {
	return s.Config.DryRun
}

// Home returns the user's home directory.
func (s *Session) Home() string {
	return s.Config.Home
}

// Acquire creates the run's temporary workspace.
func (s *Session) Acquire() (*workspace.Workspace, error) {
	ws, err := workspace.Acquire(s.Config.WorkspaceDir)
	if err != nil {
		s.Printer.Error("Failed to create temporary workspace")
		return nil, errors.NewUserError(err, "check that the workspace directory is writable")
	}
	return ws, nil
}

var optionalLabels = map[string]string{
	"jq": "jq (JSON parsing)",
}

// CheckDependencies prints the dependency report and fails when a required
// binary is missing.
func (s *Session) CheckDependencies() error {
	p := s.Printer
	p.Section("Checking Dependencies")
	p.Blank()

	pm := s.Environment().PackageManager
	report := doctor.DependencyRunner(pm, s.Runner.LookPath).Run()

	printedOptional := false
	for _, res := range report.Results {
		if res.Category == "required" {
			if res.Status == doctor.SeverityPass {
				p.Status(status.OK, res.Name)
			} else {
				p.Status(status.Error, res.Name+" - MISSING")
			}
			continue
		}

		if !printedOptional {
			p.Blank()
			p.Hint("Optional:")
			printedOptional = true
		}
		label := res.Name
		if l, ok := optionalLabels[res.Name]; ok {
			label = l
		}
		if res.Status == doctor.SeverityPass {
			p.Status(status.OK, label)
		} else {
			p.Status(status.Skip, label+" - not installed")
		}
	}

	if !report.HasErrors() {
		return nil
	}

	missing := strings.Join(report.Missing(), " ")
	hint := report.InstallHint()
	if hint == "" {
		hint = "Please install: " + missing
	}

	p.Blank()
	p.Error("Missing required dependencies: " + missing)
	p.Line("%s", p.Yellow("Install them with:"))
	p.Highlight("%s", hint)

	return errors.NewUserError(errors.Wrapf(errors.ErrMissingDependency, "%s", missing), hint)
}

// ShowEnvironment prints the detected platform.
func (s *Session) ShowEnvironment() environment.Info {
	info := s.Environment()
	s.Printer.Blank()
	s.Printer.Status(status.Info, "Operating System: "+info.OS+" ("+info.Arch+")")
	s.Printer.Status(status.Info, "Package Manager: "+info.PackageManager)
	return info
}

// CollectRepoURL asks for the backup repository. The configured repo_url is
// offered as the default. An empty answer is fatal; a URL that does not look
// like a git remote only warns.
func (s *Session) CollectRepoURL(intro string) (string, error) {
	p := s.Printer
	p.Section("Backup Repository")
	p.Blank()
	p.Line("%s", intro)
	p.Hint("Example: git@github.com:username/my-shell-backup.git")
	p.Blank()

	url := s.Prompt.Input("Repository URL", s.Config.RepoURL)
	if url == "" {
		p.Error("Repository URL is required")
		return "", errors.NewUserError(errors.ErrRepoURLRequired, "enter a git URL or set repo_url in the config file")
	}
	if !git.IsURL(url) {
		p.Warning("Repository URL format looks unusual, continuing anyway")
	}
	return url, nil
}

// VerifySSH checks git@ URLs before any clone. Other forms pass through.
func (s *Session) VerifySSH(ctx context.Context, url string) error {
	host, ok := git.SSHHost(url)
	if !ok {
		return nil
	}

	p := s.Printer
	p.Hint("Verifying SSH connection...")
	if err := s.Git.VerifySSH(ctx, url); err != nil {
		p.Error("SSH authentication failed for " + host)
		p.Blank()
		p.Line("%s", p.Yellow("Please ensure:"))
		p.Line("%s", p.Yellow("1. Your SSH key is added to your GitHub/GitLab account"))
		p.Line("%s", p.Yellow("2. Your SSH key is loaded in ssh-agent"))
		p.Line("%s", p.Yellow("3. You have access to the repository"))
		return errors.NewUserError(err, "run: ssh -T git@"+host)
	}
	p.Status(status.OK, "SSH connection verified")
	return nil
}

// minFreeMB is the free space below which the workspace check warns.
const minFreeMB = 100

// CheckDiskSpace warns when dir has less than 100MB free. It never fails.
func (s *Session) CheckDiskSpace(dir string) {
	free, err := environment.FreeSpaceMB(dir)
	if err != nil {
		s.logger.Debug("disk space check failed", "dir", dir, "error", err)
		return
	}
	if free < minFreeMB {
		s.Printer.Warning(fmt.Sprintf("Low disk space: %dMB free in %s (need %dMB)", free, dir, minFreeMB))
	}
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}
