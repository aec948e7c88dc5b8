package packages

import (
	"slices"
	"time"

	"github.com/moxforge/shellpack/internal/runner"
)

const refreshTimeout = 120 * time.Second

// installers maps a package manager to the command prefix that installs
// packages without prompting.
var installers = map[string][]string{
	"apt":    {"sudo", "apt", "install", "-y"},
	"brew":   {"brew", "install"},
	"dnf":    {"sudo", "dnf", "install", "-y"},
	"yum":    {"sudo", "yum", "install", "-y"},
	"pacman": {"sudo", "pacman", "-S", "--noconfirm"},
	"zypper": {"sudo", "zypper", "install", "-y"},
	"apk":    {"sudo", "apk", "add"},
}

// InstallCommand returns the command that installs pkg with pm. ok is false
// when pm is unknown.
func InstallCommand(pkg, pm string) (runner.Cmd, bool) {
	prefix, ok := installers[pm]
	if !ok {
		return runner.Cmd{}, false
	}
	argv := append(slices.Clone(prefix), pkg)
	return runner.Cmd{Name: argv[0], Args: argv[1:], Timeout: runner.TimeoutInstall}, true
}

// RefreshCommand returns the index refresh to run before installing, if pm
// needs one.
func RefreshCommand(pm string) (runner.Cmd, bool) {
	if pm != "apt" {
		return runner.Cmd{}, false
	}
	return runner.Cmd{Name: "sudo", Args: []string{"apt-get", "update", "-qq"}, Timeout: refreshTimeout}, true
}
