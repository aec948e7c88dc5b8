// Package conda backs up Conda environments as exported YAML files and
// recreates them on restore, bootstrapping Miniconda when no installation
// exists.
package conda

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/runner"
	"github.com/moxforge/shellpack/internal/status"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// Category is the status category of Conda backup and restore.
const Category = "conda"

// Timeouts for conda invocations.
const (
	timeoutList     = runner.TimeoutQuick
	timeoutExport   = runner.TimeoutExport
	timeoutCreate   = runner.TimeoutInstall
	timeoutDownload = 2 * time.Minute
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Env is the part of an exported environment file shellpack inspects.
type Env struct {
	Name         string   `yaml:"name"`
	Channels     []string `yaml:"channels"`
	Dependencies []any    `yaml:"dependencies"`
}

// CandidateDirs lists the install locations probed, in order.
func CandidateDirs(home string) []string {
	return []string{
		filepath.Join(home, "miniconda3"),
		filepath.Join(home, "anaconda3"),
		filepath.Join(home, "miniforge3"),
		"/opt/homebrew/Caskroom/miniconda/base",
		"/usr/local/miniconda3",
	}
}

// Locate returns the first candidate directory holding bin/conda.
func Locate(home string) (string, bool) {
	for _, dir := range CandidateDirs(home) {
		info, err := os.Stat(filepath.Join(dir, "bin", "conda"))
		if err == nil && info.Mode().IsRegular() {
			return dir, true
		}
	}
	return "", false
}

// Binary returns the conda executable inside an install directory.
func Binary(installDir string) string {
	return filepath.Join(installDir, "bin", "conda")
}

// ParseEnvList extracts environment names from `conda env list` output.
// Comments, blank lines and the active-environment marker are dropped.
func ParseEnvList(out string) []string {
	var envs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := strings.Fields(line)[0]
		if name == "*" || !envNamePattern.MatchString(name) {
			continue
		}
		envs = append(envs, name)
	}
	return envs
}

// ParseEnv validates an exported environment file.
func ParseEnv(data []byte) (*Env, error) {
	var env Env
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "parsing environment YAML")
	}
	if env.Name == "" && len(env.Dependencies) == 0 {
		return nil, errors.New("environment YAML has no name or dependencies")
	}
	return &env, nil
}

// Handler runs conda through a Runner.
type Handler struct {
	Runner runner.Runner
	Home   string
	DryRun bool
}

// Backup exports every environment of the local installation into destDir
// as <name>.yml. Individual export failures are skipped; an export that does
// not parse as an environment is still written and logged. A listing
// failure or timeout degrades to warn.
func (h *Handler) Backup(ctx context.Context, destDir string) status.Result {
	installDir, ok := Locate(h.Home)
	if !ok {
		return status.Skipf(Category, "Conda not found")
	}
	if err := paths.EnsureDir(destDir, 0o755); err != nil {
		return status.Errorf(Category, err, "Conda environments")
	}
	if h.DryRun {
		return status.DryRun(Category, "backup Conda environments")
	}

	logger := logging.FromContext(ctx)
	bin := Binary(installDir)

	res := h.Runner.Run(ctx, runner.Cmd{Name: bin, Args: []string{"env", "list"}, Timeout: timeoutList})
	if !res.OK() {
		return status.Warnf(Category, res.Err, "Conda environments (timeout or error)")
	}

	count := 0
	for _, env := range ParseEnvList(res.Stdout) {
		out := h.Runner.Run(ctx, runner.Cmd{
			Name:    bin,
			Args:    []string{"env", "export", "-n", env},
			Timeout: timeoutExport,
		})
		if !out.OK() {
			continue
		}
		if _, err := ParseEnv([]byte(out.Stdout)); err != nil {
			logger.Warn("conda export failed YAML validation", "env", env, "error", err)
		}
		if err := fileutil.AtomicWriteFile(filepath.Join(destDir, env+".yml"), []byte(out.Stdout), 0o644); err != nil {
			logger.Warn("writing conda export failed", "env", env, "error", err)
			continue
		}
		count++
	}

	if count == 0 {
		return status.Warnf(Category, nil, "Conda environments (none exported)")
	}
	return status.Okf(Category, "Conda environments (%d)", count)
}

// InstallerURL returns the Miniconda installer for the given platform.
func InstallerURL(osName, arch string) string {
	var suffix string
	switch {
	case osName == "macos" && arch == "arm64":
		suffix = "MacOSX-arm64"
	case osName == "macos":
		suffix = "MacOSX-x86_64"
	case arch == "arm64":
		suffix = "Linux-aarch64"
	default:
		suffix = "Linux-x86_64"
	}
	return "https://repo.anaconda.com/miniconda/Miniconda3-latest-" + suffix + ".sh"
}

// RestoreOptions configures Restore.
type RestoreOptions struct {
	// SrcDir is the backup's conda directory.
	SrcDir string
	OS     string
	Arch   string
	// InstallDir receives Miniconda when no installation is found.
	InstallDir string
	// TempDir holds the downloaded installer.
	TempDir string
}

// Restore recreates every exported environment except base. Creation is
// best-effort; the reported count is the number of attempts.
func (h *Handler) Restore(ctx context.Context, opts RestoreOptions) status.Result {
	files, _ := filepath.Glob(filepath.Join(opts.SrcDir, "*.yml"))
	if len(files) == 0 {
		return status.Skipf(Category, "Conda environments not in backup")
	}

	logger := logging.FromContext(ctx)

	installDir, found := Locate(h.Home)
	if !found {
		installDir = opts.InstallDir
		if h.DryRun {
			logger.Info("would install miniconda", "dir", installDir)
		} else if err := h.install(ctx, opts); err != nil {
			return status.Warnf(Category, err, "Miniconda installation failed")
		}
	}

	bin := Binary(installDir)
	if !h.DryRun && paths.Exists(bin) {
		for _, shell := range []string{"bash", "fish", "zsh"} {
			h.Runner.Run(ctx, runner.Cmd{Name: bin, Args: []string{"init", shell}, Timeout: timeoutList})
		}
	}

	count := 0
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")
		if name == "base" {
			continue
		}
		if !h.DryRun {
			data, err := fileutil.ReadLimited(file, fileutil.ConfigLimit)
			if err == nil {
				_, err = ParseEnv(data)
			}
			if err != nil {
				logger.Warn("environment file unreadable, creating anyway", "env", name, "error", err)
			}
			h.Runner.Run(ctx, runner.Cmd{
				Name:    bin,
				Args:    []string{"env", "create", "-f", file, "-n", name},
				Timeout: timeoutCreate,
			})
		}
		count++
	}

	if h.DryRun {
		return status.DryRun(Category, "restore "+plural(count, "Conda environment"))
	}
	return status.Okf(Category, "Conda environments (%d)", count)
}

func (h *Handler) install(ctx context.Context, opts RestoreOptions) error {
	installer := filepath.Join(opts.TempDir, "miniconda.sh")
	defer os.Remove(installer)

	url := InstallerURL(opts.OS, opts.Arch)
	res := h.Runner.Run(ctx, runner.Cmd{
		Name:    "curl",
		Args:    []string{"-sL", url, "-o", installer},
		Timeout: timeoutDownload,
	})
	if !res.OK() {
		return errors.Newf("downloading %s: exit %d", url, res.ExitCode)
	}

	res = h.Runner.Run(ctx, runner.Cmd{
		Name:    "bash",
		Args:    []string{installer, "-b", "-p", opts.InstallDir},
		Timeout: timeoutCreate,
	})
	if !res.OK() {
		return errors.Newf("miniconda installer exited %d", res.ExitCode)
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
