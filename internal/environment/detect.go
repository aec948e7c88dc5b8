// Package environment detects facts about the host: operating system, CPU
// architecture, package manager, login shell, hostname and user.
package environment

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// Operating system names reported by DetectOS.
const (
	OSMacOS = "macos"
	OSLinux = "linux"
	OSWSL   = "wsl"
)

// Unknown is reported when a value cannot be determined.
const Unknown = "unknown"

// PackageManagers lists the probe order for non-macOS hosts.
var PackageManagers = []string{"apt", "dnf", "yum", "pacman", "zypper", "apk"}

// Shells lists the supported shells in detection order.
var Shells = []string{"fish", "bash", "zsh"}

// Info is a snapshot of the host.
type Info struct {
	OS              string
	Arch            string
	PackageManager  string
	DefaultShell    string
	Hostname        string
	User            string
	InstalledShells []string
}

// LookPathFunc resolves a binary name to a path.
type LookPathFunc func(name string) (string, error)

// Detect gathers Info for the running host.
func Detect(lookPath LookPathFunc) Info {
	osName, arch := DetectOS()
	return Info{
		OS:              osName,
		Arch:            arch,
		PackageManager:  DetectPackageManager(osName, lookPath),
		DefaultShell:    DetectShell(),
		Hostname:        Hostname(),
		User:            User(),
		InstalledShells: InstalledShells(lookPath),
	}
}

// DetectOS returns the normalized OS name and architecture.
func DetectOS() (string, string) {
	machine, release := runtime.GOARCH, ""
	var u unix.Utsname
	if err := unix.Uname(&u); err == nil {
		machine = unix.ByteSliceToString(u.Machine[:])
		release = unix.ByteSliceToString(u.Release[:])
	}
	return classify(runtime.GOOS, machine, release)
}

func classify(goos, machine, release string) (string, string) {
	arch := strings.ToLower(machine)
	switch arch {
	case "x86_64", "amd64":
		arch = "amd64"
	case "arm64", "aarch64":
		arch = "arm64"
	case "armv7l":
		arch = "arm"
	}

	switch goos {
	case "darwin":
		return OSMacOS, arch
	case "linux":
		if strings.Contains(strings.ToLower(release), "microsoft") {
			return OSWSL, arch
		}
		return OSLinux, arch
	default:
		return goos, arch
	}
}

// DetectPackageManager returns "brew" on macOS, otherwise the first of
// PackageManagers found on PATH, otherwise Unknown.
func DetectPackageManager(osName string, lookPath LookPathFunc) string {
	if osName == OSMacOS {
		return "brew"
	}
	for _, pm := range PackageManagers {
		if _, err := lookPath(pm); err == nil {
			return pm
		}
	}
	return Unknown
}

// DetectShell returns the base name of $SHELL, defaulting to bash.
func DetectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	return filepath.Base(shell)
}

// Hostname returns the host name or Unknown.
func Hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return Unknown
	}
	return h
}

// User returns $USER or Unknown.
func User() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return Unknown
}

// InstalledShells returns the members of Shells found on PATH, in order.
func InstalledShells(lookPath LookPathFunc) []string {
	var found []string
	for _, s := range Shells {
		if _, err := lookPath(s); err == nil {
			found = append(found, s)
		}
	}
	return found
}
