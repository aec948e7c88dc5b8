package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/manifest"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/status"
	"github.com/moxforge/shellpack/internal/ui"
	"github.com/moxforge/shellpack/internal/wizard"
	"github.com/moxforge/shellpack/internal/workspace"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// Backup type menu entries, in menu order.
var typeOptions = []string{
	"Full backup (personal use)",
	"Shareable backup (safe to share)",
}

// Orchestrator runs the backup wizard against one Session.
type Orchestrator struct {
	s *wizard.Session
}

// New creates an Orchestrator.
func New(s *wizard.Session) *Orchestrator {
	return &Orchestrator{s: s}
}

// Run walks the wizard from dependency checks to push. The workspace holding
// the staged tree is released on every return path.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	s := o.s
	p := s.Printer

	p.Banner(s.Version)
	p.Header("Backup Shell Environment")

	if err := s.CheckDependencies(); err != nil {
		return nil, err
	}
	env := s.ShowEnvironment()

	url, err := s.CollectRepoURL("Enter the Git repository URL where backups will be stored.")
	if err != nil {
		return nil, err
	}

	ch := Choices{RepoURL: url}
	ch.Name = o.collectName()
	ch.Type = o.selectType()
	o.selectCategories(&ch)
	ch.Shells = o.selectShells()
	ch = ch.normalized()

	out := &Outcome{Choices: ch}

	p.Section("Estimating Backup Size")
	p.Blank()
	out.EstimateKB = EstimateKB(s.Home(), ch)
	p.Line("Estimated size: %s", p.Cyan(FormatSize(out.EstimateKB)))

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

	p.Section("Creating Backup")
	p.Blank()

	out.LocalDir = ws.Path("backup", ch.Name)
	if err := createTree(out.LocalDir); err != nil {
		p.Error("Failed to create backup directory")
		return out, errors.NewUserError(err, "check that the workspace directory is writable")
	}

	c := &collector{
		home:   s.Home(),
		dest:   out.LocalDir,
		pm:     env.PackageManager,
		dryRun: s.DryRun(),
		runner: s.Runner,
		logger: s.Logger(),
	}
	out.Categories = c.run(ctx, ch)
	for _, r := range out.Categories {
		p.Result(r)
	}

	p.Blank()
	p.Section("Finalizing Backup")
	p.Hint("Creating backup manifest...")

	out.Manifest = manifest.New(s.Version, ch.Name, ch.Type, manifest.Source{
		User:           env.User,
		Hostname:       env.Hostname,
		OS:             env.OS,
		Arch:           env.Arch,
		PackageManager: env.PackageManager,
		DefaultShell:   env.DefaultShell,
	}, ch.Shells, s.Now())

	if s.DryRun() {
		p.Status(status.Info, "[DRY RUN] Would create manifest")
	} else {
		if err := manifest.Create(out.LocalDir, out.Manifest); err != nil {
			p.Error("Failed to create manifest")
			return out, errors.NewUserError(err, "check free space in the workspace directory")
		}
		p.Status(status.OK, "Manifest created")
	}

	return out, o.publish(ctx, ws, out)
}

// publish verifies SSH, clones or initializes the repository, copies the
// staged tree into backups/<name> and pushes.
func (o *Orchestrator) publish(ctx context.Context, ws *workspace.Workspace, out *Outcome) error {
	s := o.s
	p := s.Printer
	ch := out.Choices

	p.Section("Pushing to Repository")
	p.Blank()

	if err := s.VerifySSH(ctx, ch.RepoURL); err != nil {
		o.reportLocal(out.LocalDir)
		return err
	}

	if s.DryRun() {
		p.Status(status.Info, "[DRY RUN] Would clone: "+ch.RepoURL)
		p.Status(status.Info, "[DRY RUN] Would push: Backup: "+ch.Name)
		return nil
	}

	out.RepoDir = ws.Path("git")
	p.Hint("Cloning repository...")
	if err := s.Git.Clone(ctx, ch.RepoURL, out.RepoDir, 1); err != nil {
		s.Logger().Warn("clone failed, falling back to init", "error", err)
		p.Line("%s", p.Yellow("Clone failed, initializing new repository..."))
		if err := os.RemoveAll(out.RepoDir); err != nil {
			p.Error("Failed to clear the clone directory")
			return errors.NewUserError(err, "check that the workspace directory is writable")
		}
		if err := s.Git.Init(ctx, out.RepoDir, ch.RepoURL); err != nil {
			p.Error("Failed to initialize git repository")
			return errors.NewUserError(err, "check that git is installed and working")
		}
	} else {
		p.Status(status.OK, "Repository cloned")
	}

	p.Hint("Copying backup files...")
	if err := fileutil.CopyDir(out.LocalDir, paths.BackupPath(out.RepoDir, ch.Name)); err != nil {
		p.Error(fmt.Sprintf("Failed to copy backup files: %v", err))
		return errors.NewUserError(err, "check the layout of backups/ in the repository")
	}
	p.Status(status.OK, "Backup files copied")

	res, err := s.Git.Push(ctx, out.RepoDir, "Backup: "+ch.Name)
	if err != nil {
		p.Error("Failed to push to repository")
		o.reportLocal(out.LocalDir)
		p.Blank()
		p.Line("%s", p.Yellow("You can manually push it later:"))
		p.Hint("cd %s && git push -u origin main", out.RepoDir)
		return errors.NewUserError(err, "check your access to "+ch.RepoURL)
	}
	if res.NothingToCommit {
		p.Status(status.Info, "No changes since the last backup")
	}
	p.Status(status.OK, "Pushed to repository")

	p.Complete("BACKUP COMPLETE!",
		"Backup: "+p.Cyan(ch.Name),
		"Repository: "+p.Cyan(ch.RepoURL),
		"",
		"To restore on another machine:",
		p.Gray("shellpack restore"),
	)
	return nil
}

func (o *Orchestrator) reportLocal(dir string) {
	p := o.s.Printer
	p.Blank()
	p.Line("%s", p.Yellow("Your backup is saved locally at:"))
	p.Line("%s", p.Cyan(dir))
}

// collectName suggests {shell}-{host}-{date} and sanitizes the answer.
func (o *Orchestrator) collectName() string {
	s := o.s
	env := s.Environment()
	now := s.Now()

	def := manifest.DefaultName(env.DefaultShell, hostSlug(env.Hostname), now)

	p := s.Printer
	p.Blank()
	p.Hint("Suggested name: %s", def)
	p.Hint("Format: {shell}-{hostname}-{date}")

	return manifest.SanitizeName(s.Prompt.Input("Backup name", def), now)
}

// hostSlug lowercases host and keeps letters, digits and dashes.
func hostSlug(host string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, strings.ToLower(host))
}

func (o *Orchestrator) selectType() string {
	p := o.s.Printer
	p.Section("Backup Type")
	p.Blank()

	p.Line("%s %s - For personal use (includes sensitive data)", p.Gray("[1]"), p.Bold("Full Backup"))
	p.Line("%s %s - Safe to share publicly (excludes sensitive data)", p.Gray("[2]"), p.Bold("Shareable Backup"))
	p.Blank()

	if o.s.Prompt.Choice("Select backup type", typeOptions) == 2 {
		return manifest.TypeShareable
	}
	return manifest.TypeFull
}

func (o *Orchestrator) selectCategories(ch *Choices) {
	s := o.s
	p := s.Printer

	if ch.Shareable() {
		p.Section("Shareable Backup")
		p.Blank()
		p.Line("%s", p.Yellow("The following will be EXCLUDED:"))
		for _, item := range []string{"SSH keys", "Git config (name/email)", "Shell history", "Cloud credentials"} {
			p.Item(item)
		}
		p.Blank()
		p.Line("%s", p.Green("The following will be INCLUDED:"))
		for _, item := range []string{"Shell configurations", "Starship config", "Package list"} {
			p.Item(item)
		}
		p.Blank()
		ch.Conda = s.Prompt.YesNo("Include Conda environments?", true)
		return
	}

	p.Section("Select Data to Backup")
	p.Blank()
	ch.SSH = s.Prompt.YesNo("Include SSH keys?", true)
	ch.GitConfig = s.Prompt.YesNo("Include Git config?", true)
	ch.History = s.Prompt.YesNo("Include shell history?", false)
	ch.Cloud = s.Prompt.YesNo("Include cloud credentials (AWS/Azure/GCP)?", false)
	ch.Conda = s.Prompt.YesNo("Include Conda environments?", true)
}

// selectShells offers every installed shell in detection order.
func (o *Orchestrator) selectShells() []string {
	s := o.s
	p := s.Printer
	env := s.Environment()

	p.Section("Shell Selection")
	p.Blank()
	p.Line("Detected shells:")

	selected := []string{}
	for _, shell := range env.InstalledShells {
		label := ui.Title(shell)
		if shell == "zsh" && paths.IsDir(filepath.Join(s.Home(), paths.OhMyZshDir)) {
			label += " + Oh-My-Zsh"
		}
		if shell == env.DefaultShell {
			label += " " + p.Green("(default)")
		}
		p.Item(label)
		if s.Prompt.YesNo(fmt.Sprintf("    Backup %s?", ui.Title(shell)), true) {
			selected = append(selected, shell)
		}
	}
	return selected
}

// createTree lays out the fixed subdirectories of a backup.
func createTree(root string) error {
	for _, sub := range paths.BackupSubdirs {
		if err := paths.EnsureDir(filepath.Join(root, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}
