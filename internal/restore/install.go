package restore

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/moxforge/shellpack/internal/git"
	"github.com/moxforge/shellpack/internal/packages"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/runner"
	"github.com/moxforge/shellpack/internal/status"
	"github.com/moxforge/shellpack/internal/workspace"
)

const starshipInstaller = "https://starship.rs/install.sh"

// installShell installs shell with the detected package manager unless it
// is already on PATH.
func (o *Orchestrator) installShell(ctx context.Context, shell, pm string) status.Result {
	r := o.s.Runner
	if _, err := r.LookPath(shell); err == nil {
		return status.Okf(CategoryInstall, "%s (already installed)", shell)
	}
	if o.s.DryRun() {
		return status.DryRun(CategoryInstall, "install "+shell)
	}

	cmd, ok := packages.InstallCommand(shell, pm)
	if !ok {
		return status.Errorf(CategoryInstall, nil, "%s installation failed (no installer for %s)", shell, pm)
	}
	if refresh, ok := packages.RefreshCommand(pm); ok {
		r.Run(ctx, refresh)
	}
	r.Run(ctx, cmd)

	if _, err := r.LookPath(shell); err != nil {
		return status.Errorf(CategoryInstall, err, "%s installation failed", shell)
	}
	return status.Okf(CategoryInstall, "%s", shell)
}

// installStarship downloads the official installer into the workspace and
// runs it non-interactively.
func (o *Orchestrator) installStarship(ctx context.Context, ws *workspace.Workspace) status.Result {
	r := o.s.Runner
	if _, err := r.LookPath("starship"); err == nil {
		return status.Okf(CategoryInstall, "Starship (already installed)")
	}
	if o.s.DryRun() {
		return status.DryRun(CategoryInstall, "install Starship")
	}

	script := ws.Path("starship-install.sh")
	res := r.Run(ctx, runner.Cmd{
		Name:    "curl",
		Args:    []string{"-fsSL", starshipInstaller, "-o", script},
		Timeout: runner.TimeoutNetwork,
	})
	if !res.OK() {
		return status.Warnf(CategoryInstall, res.Err, "Starship installation failed")
	}
	r.Run(ctx, runner.Cmd{Name: "sh", Args: []string{script, "-y"}, Timeout: runner.TimeoutInstall})

	if _, err := r.LookPath("starship"); err != nil {
		return status.Warnf(CategoryInstall, err, "Starship installation failed")
	}
	return status.Okf(CategoryInstall, "Starship")
}

// configureCredentialHelper offers the best credential.helper for osName.
func (o *Orchestrator) configureCredentialHelper(ctx context.Context, osName string) status.Result {
	s := o.s
	p := s.Printer

	p.Section("Git Credential Helper")
	p.Blank()
	p.Line("Git credential helpers securely store your credentials.")
	p.Blank()

	h := git.CredentialHelper(osName, s.Runner.LookPath, paths.Exists)
	if h.Persistent {
		p.Status(status.OK, h.Description+" available")
	} else {
		p.Status(status.Warn, "Using "+h.Description)
		if osName == "linux" {
			p.Hint("Install gnome-keyring or pass for persistent storage")
		}
	}
	p.Blank()

	if !s.Prompt.YesNo(fmt.Sprintf("Configure Git credential helper (%s)?", h.Value), true) {
		return status.Skipf(CategoryCredential, "Git credential helper skipped")
	}
	if s.DryRun() {
		return status.DryRun(CategoryCredential, "configure credential helper")
	}
	if err := s.Git.ConfigGlobal(ctx, "credential.helper", h.Value); err != nil {
		return status.Errorf(CategoryCredential, err, "Git credential helper")
	}
	return status.Okf(CategoryCredential, "Git credential helper configured")
}

// setDefaultShell registers shell in the shells file when needed, then runs
// chsh, falling back to sudo chsh for user.
func (o *Orchestrator) setDefaultShell(ctx context.Context, shell, user string) status.Result {
	r := o.s.Runner
	shellPath, err := r.LookPath(shell)
	if err != nil {
		return status.Errorf(CategoryChsh, err, "Cannot find %s path", shell)
	}
	if o.s.DryRun() {
		return status.DryRun(CategoryChsh, "set default shell to "+shell)
	}

	if !registeredShell(o.shellsFile, shellPath) {
		res := r.Run(ctx, runner.Cmd{
			Name:    "sudo",
			Args:    []string{"tee", "-a", o.shellsFile},
			Stdin:   strings.NewReader(shellPath + "\n"),
			Timeout: runner.TimeoutNetwork,
		})
		if !res.OK() {
			o.s.Logger().Warn("registering shell failed", "shell", shellPath, "file", o.shellsFile)
		}
	}

	chsh := runner.Cmd{Name: "chsh", Args: []string{"-s", shellPath}, Interactive: true, Timeout: runner.TimeoutNetwork}
	if r.Run(ctx, chsh).OK() {
		return status.Okf(CategoryChsh, "Default shell set to %s", shell)
	}

	sudo := runner.Cmd{Name: "sudo", Args: []string{"chsh", "-s", shellPath, user}, Interactive: true, Timeout: runner.TimeoutNetwork}
	if r.Run(ctx, sudo).OK() {
		return status.Okf(CategoryChsh, "Default shell set to %s", shell)
	}
	return status.Warnf(CategoryChsh, nil, "Could not set default shell (try manually: chsh -s %s)", shellPath)
}

// registeredShell reports whether shellPath is listed in the shells file.
func registeredShell(file, shellPath string) bool {
	f, err := os.Open(file)
	if err != nil {
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == shellPath {
			return true
		}
	}
	return false
}
