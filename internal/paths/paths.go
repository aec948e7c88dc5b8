package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName names the XDG subdirectories owned by shellpack.
const AppName = "shellpack"

// Repository layout.
const (
	// BackupsDir is the only repository subtree the orchestrators write.
	BackupsDir = "backups"
	// ManifestFile sits at the root of each backup directory.
	ManifestFile = "manifest.json"
)

// Backup tree subdirectories, relative to the backup root.
const (
	ShellsDir   = "shells"
	PackagesDir = "packages"
	ConfigDir   = "config"
	CloudDir    = "config/cloud"
	CondaDir    = "conda"
	SSHDir      = "ssh"
	HistoryDir  = "history"
)

// BackupSubdirs lists every directory created for a new backup tree.
var BackupSubdirs = []string{
	filepath.Join(ShellsDir, "fish"),
	filepath.Join(ShellsDir, "bash"),
	filepath.Join(ShellsDir, "zsh"),
	PackagesDir,
	CloudDir,
	CondaDir,
	SSHDir,
	HistoryDir,
}

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
func ConfigHome() string {
	return xdg.ConfigHome
}

// StateHome returns the XDG state home directory.
func StateHome() string {
	return xdg.StateHome
}

// ConfigSearchDir returns <ConfigHome>/shellpack.
func ConfigSearchDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// LogDir returns <StateHome>/shellpack, where --log-file defaults live.
func LogDir() string {
	return filepath.Join(StateHome(), AppName)
}

// BackupPath returns <repoDir>/backups/<name>.
func BackupPath(repoDir, name string) string {
	return filepath.Join(repoDir, BackupsDir, name)
}

// Expand replaces a leading "~/" with home.
func Expand(home, path string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// Exists reports whether path exists, following symlinks.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path is an existing directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
