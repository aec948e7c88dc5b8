package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/moxforge/shellpack/internal/archive"
	"github.com/moxforge/shellpack/internal/conda"
	"github.com/moxforge/shellpack/internal/packages"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/runner"
	"github.com/moxforge/shellpack/internal/status"
	"github.com/moxforge/shellpack/internal/ui"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// collector fills one staged backup tree from the user's home.
type collector struct {
	home   string
	dest   string
	pm     string
	dryRun bool
	runner runner.Runner
	logger *slog.Logger
}

func (c *collector) from(rel string) string {
	return filepath.Join(c.home, rel)
}

func (c *collector) to(elem ...string) string {
	return filepath.Join(append([]string{c.dest}, elem...)...)
}

// run executes every category in order and returns one result
// per routine. Excluded categories report skip.
func (c *collector) run(ctx context.Context, ch Choices) status.Results {
	ch = ch.normalized()

	var rs status.Results
	for _, shell := range ch.Shells {
		rs = append(rs, c.shell(shell))
	}
	rs = append(rs, packages.Export(ctx, c.runner, c.pm, c.to(paths.PackagesDir), c.dryRun))
	rs = append(rs, c.starship())

	if ch.GitConfig {
		rs = append(rs, c.gitConfig())
	} else {
		rs = append(rs, status.Skipf(CategoryGitConfig, "Git config (excluded)"))
	}
	if ch.SSH {
		rs = append(rs, c.ssh())
	} else {
		rs = append(rs, status.Skipf(CategorySSH, "SSH keys (excluded)"))
	}
	if ch.Conda {
		h := &conda.Handler{Runner: c.runner, Home: c.home, DryRun: c.dryRun}
		rs = append(rs, h.Backup(ctx, c.to(paths.CondaDir)))
	} else {
		rs = append(rs, status.Skipf(CategoryConda, "Conda environments (excluded)"))
	}
	if ch.History {
		rs = append(rs, c.history())
	} else {
		rs = append(rs, status.Skipf(CategoryHistory, "Shell history (excluded)"))
	}
	if ch.Cloud {
		rs = append(rs, c.cloud())
	} else {
		rs = append(rs, status.Skipf(CategoryCloud, "Cloud credentials (excluded)"))
	}

	for _, r := range rs {
		switch r.Status {
		case status.Error:
			c.logger.Error("category failed", "category", r.Category, "message", r.Message, "error", r.Err)
		case status.Warn:
			c.logger.Warn("category degraded", "category", r.Category, "message", r.Message, "error", r.Err)
		default:
			c.logger.Debug("category done", "category", r.Category, "status", string(r.Status), "message", r.Message)
		}
	}
	return rs
}

func (c *collector) shell(name string) status.Result {
	switch name {
	case "fish":
		return c.fish()
	case "bash", "zsh":
		return c.dotfiles(name)
	}
	return status.Skipf(CategoryShells, "%s config not supported", ui.Title(name))
}

func (c *collector) fish() status.Result {
	src := c.from(paths.FishConfigDir)
	if !paths.IsDir(src) {
		return status.Skipf(CategoryShells, "Fish config not found")
	}
	if c.dryRun {
		return status.DryRun(CategoryShells, "backup Fish config")
	}
	if err := archive.CreateTarGz(src, c.to(paths.ShellsDir, "fish", paths.FishArchive), "fish"); err != nil {
		return status.Errorf(CategoryShells, err, "Fish backup failed")
	}
	return status.Okf(CategoryShells, "Fish config")
}

// dotfiles copies the allowlisted files of bash or zsh. Zsh also archives
// Oh-My-Zsh when present.
func (c *collector) dotfiles(shell string) status.Result {
	title := ui.Title(shell)
	dir := c.to(paths.ShellsDir, shell)

	found := 0
	for _, f := range paths.ShellFiles(shell) {
		src := c.from(f)
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		found++
		if c.dryRun {
			continue
		}
		if err := fileutil.CopyFile(src, filepath.Join(dir, f)); err != nil {
			c.logger.Warn("copy failed", "src", src, "dst", filepath.Join(dir, f), "error", err)
			found--
		}
	}

	omz := shell == "zsh" && paths.IsDir(c.from(paths.OhMyZshDir))
	if c.dryRun && (found > 0 || omz) {
		return status.DryRun(CategoryShells, fmt.Sprintf("backup %s config", title))
	}
	if omz {
		if err := archive.CreateTarGz(c.from(paths.OhMyZshDir), filepath.Join(dir, paths.OhMyZshArchive), paths.OhMyZshDir); err != nil {
			return status.Warnf(CategoryShells, err, "Zsh config (%d files, Oh-My-Zsh failed)", found)
		}
		return status.Okf(CategoryShells, "Zsh config + Oh-My-Zsh")
	}
	if found == 0 {
		return status.Skipf(CategoryShells, "%s config not found", title)
	}
	return status.Okf(CategoryShells, "%s config (%d files)", title, found)
}

// starship copies starship.toml. A file that does not parse as TOML is still
// copied but reported as warn.
func (c *collector) starship() status.Result {
	src := c.from(paths.StarshipConfig)
	if !paths.Exists(src) {
		return status.Skipf(CategoryStarship, "Starship config not found")
	}
	if c.dryRun {
		return status.DryRun(CategoryStarship, "backup Starship config")
	}

	var invalid error
	if data, err := fileutil.ReadLimited(src, fileutil.ConfigLimit); err == nil {
		var doc map[string]any
		invalid = toml.Unmarshal(data, &doc)
	}

	if err := fileutil.CopyFile(src, c.to(paths.ConfigDir, "starship.toml")); err != nil {
		return status.Errorf(CategoryStarship, err, "Starship config")
	}
	if invalid != nil {
		return status.Warnf(CategoryStarship, invalid, "Starship config (invalid TOML)")
	}
	return status.Okf(CategoryStarship, "Starship config")
}

func (c *collector) gitConfig() status.Result {
	src := c.from(paths.GitConfig)
	if !paths.Exists(src) {
		return status.Skipf(CategoryGitConfig, "Git config not found")
	}
	if c.dryRun {
		return status.DryRun(CategoryGitConfig, "backup Git config")
	}
	if err := fileutil.CopyFile(src, c.to(paths.ConfigDir, paths.GitConfig)); err != nil {
		return status.Errorf(CategoryGitConfig, err, "Git config")
	}
	return status.Okf(CategoryGitConfig, "Git config")
}

func (c *collector) ssh() status.Result {
	src := c.from(paths.SSHHome)
	if !paths.IsDir(src) {
		return status.Skipf(CategorySSH, "SSH directory not found")
	}
	if c.dryRun {
		return status.DryRun(CategorySSH, "backup SSH keys")
	}
	if err := archive.CreateTarGz(src, c.to(paths.SSHDir, paths.SSHArchive), paths.SSHHome); err != nil {
		return status.Errorf(CategorySSH, err, "SSH keys backup failed")
	}
	return status.Okf(CategorySSH, "SSH keys")
}

func (c *collector) history() status.Result {
	if c.dryRun {
		return status.DryRun(CategoryHistory, "backup shell history")
	}

	found := false
	for _, name := range paths.HistoryFiles {
		src := c.from(name)
		if !paths.Exists(src) || paths.IsDir(src) {
			continue
		}
		if err := fileutil.CopyFile(src, c.to(paths.HistoryDir, name)); err != nil {
			c.logger.Warn("copy failed", "src", src, "error", err)
			continue
		}
		found = true
	}
	if fishHist := c.from(paths.FishHistoryDir); paths.IsDir(fishHist) {
		if err := fileutil.CopyDir(fishHist, c.to(paths.HistoryDir, "fish")); err != nil {
			c.logger.Warn("copying fish history failed", "error", err)
		} else {
			found = true
		}
	}

	if !found {
		return status.Skipf(CategoryHistory, "Shell history (not found)")
	}
	return status.Okf(CategoryHistory, "Shell history")
}

func (c *collector) cloud() status.Result {
	if c.dryRun {
		return status.DryRun(CategoryCloud, "backup cloud credentials")
	}

	found := 0
	for _, src := range paths.CloudSources {
		dir := c.from(src.Dir)
		if !paths.IsDir(dir) {
			continue
		}
		if err := archive.CreateTarGz(dir, c.to(paths.CloudDir, src.Archive()), src.Root); err != nil {
			c.logger.Warn("cloud credentials backup failed", "provider", src.Name, "error", err)
			continue
		}
		found++
	}
	if found == 0 {
		return status.Skipf(CategoryCloud, "Cloud credentials not found")
	}
	return status.Okf(CategoryCloud, "Cloud credentials (%d)", found)
}
