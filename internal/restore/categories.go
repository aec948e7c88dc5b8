package restore

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/moxforge/shellpack/internal/archive"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/rollback"
	"github.com/moxforge/shellpack/internal/sshkeys"
	"github.com/moxforge/shellpack/internal/status"
	"github.com/moxforge/shellpack/internal/ui"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// applier replays one backup directory onto home. Every target is tracked
// in the journal before it is written.
type applier struct {
	src     string
	home    string
	dryRun  bool
	journal *rollback.Journal
	logger  *slog.Logger
}

func (a *applier) from(elem ...string) string {
	return filepath.Join(append([]string{a.src}, elem...)...)
}

func (a *applier) to(rel string) string {
	return filepath.Join(a.home, rel)
}

// copyFile copies one file from the backup to home.
func (a *applier) copyFile(src, dst string) error {
	if err := a.journal.Track(dst); err != nil {
		return err
	}
	return fileutil.CopyFile(src, dst)
}

// extract unpacks archivePath under parent, tracking the archive's root.
func (a *applier) extract(archivePath, parent, root string) error {
	if err := paths.EnsureDir(parent, 0o755); err != nil {
		return err
	}
	if err := a.journal.Track(filepath.Join(parent, root)); err != nil {
		return err
	}
	_, err := archive.ExtractTarGz(archivePath, parent)
	return err
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func (a *applier) shell(name string) status.Result {
	switch name {
	case "fish":
		return a.fish()
	case "bash", "zsh":
		return a.dotfiles(name)
	}
	return status.Skipf(CategoryShells, "%s config not supported", ui.Title(name))
}

func (a *applier) fish() status.Result {
	src := a.from(paths.ShellsDir, "fish", paths.FishArchive)
	if !isFile(src) {
		return status.Skipf(CategoryShells, "Fish config not in backup")
	}
	if a.dryRun {
		return status.DryRun(CategoryShells, "restore Fish config")
	}
	if err := a.extract(src, a.to(".config"), "fish"); err != nil {
		return status.Errorf(CategoryShells, err, "Fish restore failed")
	}
	return status.Okf(CategoryShells, "Fish config")
}

func (a *applier) dotfiles(shell string) status.Result {
	title := ui.Title(shell)
	dir := a.from(paths.ShellsDir, shell)

	found := 0
	for _, f := range paths.ShellFiles(shell) {
		src := filepath.Join(dir, f)
		if !isFile(src) {
			continue
		}
		found++
		if a.dryRun {
			continue
		}
		if err := a.copyFile(src, a.to(f)); err != nil {
			a.logger.Warn("restoring dotfile failed", "file", f, "error", err)
			found--
		}
	}

	omz := filepath.Join(dir, paths.OhMyZshArchive)
	hasOMZ := shell == "zsh" && isFile(omz)
	if a.dryRun && (found > 0 || hasOMZ) {
		return status.DryRun(CategoryShells, "restore "+title+" config")
	}
	if hasOMZ {
		if err := a.extract(omz, a.home, paths.OhMyZshDir); err != nil {
			return status.Warnf(CategoryShells, err, "Zsh config (%d files, Oh-My-Zsh failed)", found)
		}
		return status.Okf(CategoryShells, "Zsh config + Oh-My-Zsh")
	}
	if found == 0 {
		return status.Skipf(CategoryShells, "%s config not in backup", title)
	}
	return status.Okf(CategoryShells, "%s config (%d files)", title, found)
}

func (a *applier) starship() status.Result {
	src := a.from(paths.ConfigDir, "starship.toml")
	if !isFile(src) {
		return status.Skipf(CategoryStarship, "Starship config not in backup")
	}
	if a.dryRun {
		return status.DryRun(CategoryStarship, "restore Starship config")
	}
	if err := a.copyFile(src, a.to(paths.StarshipConfig)); err != nil {
		return status.Errorf(CategoryStarship, err, "Starship config")
	}
	return status.Okf(CategoryStarship, "Starship config")
}

func (a *applier) gitConfig() status.Result {
	src := a.from(paths.ConfigDir, paths.GitConfig)
	if !isFile(src) {
		return status.Skipf(CategoryGitConfig, "Git config not in backup")
	}
	if a.dryRun {
		return status.DryRun(CategoryGitConfig, "restore Git config")
	}
	if err := a.copyFile(src, a.to(paths.GitConfig)); err != nil {
		return status.Errorf(CategoryGitConfig, err, "Git config")
	}
	return status.Okf(CategoryGitConfig, "Git config")
}

// sshKeys extracts the key archive into home and fixes permissions.
func (a *applier) sshKeys() status.Result {
	src := a.from(paths.SSHDir, paths.SSHArchive)
	if !isFile(src) {
		return status.Skipf(CategorySSH, "SSH keys not in backup")
	}
	if a.dryRun {
		return status.DryRun(CategorySSH, "restore SSH keys")
	}
	if err := a.extract(src, a.home, paths.SSHHome); err != nil {
		return status.Errorf(CategorySSH, err, "SSH restore failed")
	}
	if err := sshkeys.FixPermissions(a.home); err != nil {
		return status.Warnf(CategorySSH, err, "SSH keys (permissions not fixed)")
	}
	return status.Okf(CategorySSH, "SSH keys")
}

func (a *applier) history() status.Result {
	dir := a.from(paths.HistoryDir)
	if !paths.IsDir(dir) {
		return status.Skipf(CategoryHistory, "Shell history not in backup")
	}
	if a.dryRun {
		return status.DryRun(CategoryHistory, "restore shell history")
	}

	found := false
	for _, name := range paths.HistoryFiles {
		src := filepath.Join(dir, name)
		if !isFile(src) {
			continue
		}
		if err := a.copyFile(src, a.to(name)); err != nil {
			a.logger.Warn("restoring history failed", "file", name, "error", err)
			continue
		}
		found = true
	}
	if fish := filepath.Join(dir, "fish"); paths.IsDir(fish) {
		dst := a.to(paths.FishHistoryDir)
		if err := a.journal.Track(dst); err != nil {
			a.logger.Warn("tracking fish history failed", "error", err)
		}
		if err := fileutil.CopyDir(fish, dst); err != nil {
			a.logger.Warn("restoring fish history failed", "error", err)
		} else {
			found = true
		}
	}

	if !found {
		return status.Skipf(CategoryHistory, "Shell history (nothing to restore)")
	}
	return status.Okf(CategoryHistory, "Shell history")
}

func (a *applier) cloud() status.Result {
	dir := a.from(paths.CloudDir)
	if !paths.IsDir(dir) {
		return status.Skipf(CategoryCloud, "Cloud credentials not in backup")
	}
	if a.dryRun {
		return status.DryRun(CategoryCloud, "restore cloud credentials")
	}

	found := 0
	for _, src := range paths.CloudSources {
		file := filepath.Join(dir, src.Archive())
		if !isFile(file) {
			continue
		}
		if err := a.extract(file, a.to(src.Parent), src.Root); err != nil {
			a.logger.Warn("restoring cloud credentials failed", "provider", src.Name, "error", err)
			continue
		}
		found++
	}
	if found == 0 {
		return status.Skipf(CategoryCloud, "Cloud credentials not in backup")
	}
	return status.Okf(CategoryCloud, "Cloud credentials (%d)", found)
}
