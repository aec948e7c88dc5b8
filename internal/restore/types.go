package restore

import (
	"github.com/moxforge/shellpack/internal/manifest"
	"github.com/moxforge/shellpack/internal/status"
)

// Category names, in restore order.
const (
	CategorySSH        = "ssh"
	CategoryInstall    = "install"
	CategoryShells     = "shells"
	CategoryStarship   = "starship"
	CategoryGitConfig  = "git-config"
	CategoryCredential = "credential-helper"
	CategoryConda      = "conda"
	CategoryHistory    = "history"
	CategoryCloud      = "cloud"
	CategoryChsh       = "default-shell"
)

// SSH key handling choices, in menu order.
const (
	SSHRestore = iota + 1
	SSHGenerate
	SSHSkip
)

var sshOptions = []string{
	"Restore SSH keys from backup",
	"Generate new SSH keys",
	"Skip SSH setup",
}

// Outcome describes a finished restore.
type Outcome struct {
	RepoURL string
	// Backup is the selected backup directory name.
	Backup string
	// Manifest is nil when the backup has none or it is unreadable.
	Manifest *manifest.Manifest
	// ChecksumOK is set only when a manifest was verified.
	ChecksumOK   *bool
	Shells       []string
	DefaultShell string
	Results      status.Results
	// RolledBack is set when the user chose to undo the restored files.
	RolledBack bool
}
