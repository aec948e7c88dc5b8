// Package packages exports the installed-package lists of the detected
// package manager and builds install commands for the restore side.
package packages

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/runner"
	"github.com/moxforge/shellpack/internal/status"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// Category is the status category of package exports.
const Category = "packages"

// query is one package-manager invocation and the file its stdout lands in.
type query struct {
	name string
	args []string
	file string
	// filter post-processes stdout before it is written.
	filter func(string) string
}

type exporter struct {
	label   string
	queries []query
}

var exporters = map[string]exporter{
	"apt": {
		label: "APT packages",
		queries: []query{
			{name: "apt", args: []string{"list", "--installed"}, file: "apt_packages.txt", filter: dropAptHeader},
			{name: "apt-mark", args: []string{"showmanual"}, file: "apt_manual.txt"},
		},
	},
	"brew": {
		label: "Homebrew packages",
		queries: []query{
			{name: "brew", args: []string{"list", "--formula"}, file: "brew_formula.txt"},
			{name: "brew", args: []string{"list", "--cask"}, file: "brew_cask.txt"},
			{name: "brew", args: []string{"leaves"}, file: "brew_leaves.txt"},
		},
	},
	"dnf": rpmExporter,
	"yum": rpmExporter,
	"pacman": {
		label: "Pacman packages",
		queries: []query{
			{name: "pacman", args: []string{"-Qe"}, file: "pacman_packages.txt"},
			{name: "pacman", args: []string{"-Qm"}, file: "pacman_aur.txt"},
		},
	},
}

var rpmExporter = exporter{
	label: "RPM packages",
	queries: []query{
		{name: "rpm", args: []string{"-qa"}, file: "rpm_packages.txt"},
	},
}

// Supported reports whether pm has an exporter.
func Supported(pm string) bool {
	_, ok := exporters[pm]
	return ok
}

// Files lists the files an export for pm can produce, in query order.
func Files(pm string) []string {
	var out []string
	for _, q := range exporters[pm].queries {
		out = append(out, q.file)
	}
	return out
}

// Export writes the package lists for pm into dir. A query that exits
// non-zero leaves its file unwritten; the category is ok when at least one
// file was produced.
func Export(ctx context.Context, r runner.Runner, pm, dir string, dryRun bool) status.Result {
	exp, ok := exporters[pm]
	if !ok {
		return status.Skipf(Category, "Package manager not supported: %s", pm)
	}
	if dryRun {
		return status.DryRun(Category, "backup package list ("+pm+")")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return status.Errorf(Category, err, "%s", exp.label)
	}

	logger := logging.FromContext(ctx)
	written := 0
	var lastErr error
	for _, q := range exp.queries {
		res := r.Run(ctx, runner.Cmd{Name: q.name, Args: q.args, Timeout: runner.TimeoutExport})
		if !res.OK() {
			lastErr = errors.Newf("%s exited %d", runner.Key(q.name, q.args...), res.ExitCode)
			continue
		}

		out := res.Stdout
		if q.filter != nil {
			out = q.filter(out)
		}
		if err := fileutil.AtomicWriteFile(filepath.Join(dir, q.file), []byte(out), 0o644); err != nil {
			lastErr = err
			continue
		}
		logger.Debug("package list exported", "file", q.file)
		written++
	}

	if written == 0 {
		return status.Warnf(Category, lastErr, "%s (no lists exported)", exp.label)
	}
	return status.Okf(Category, "%s", exp.label)
}

func dropAptHeader(out string) string {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.Contains(l, "Listing...") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n") + "\n"
}
