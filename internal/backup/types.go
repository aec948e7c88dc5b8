package backup

import (
	"github.com/moxforge/shellpack/internal/manifest"
	"github.com/moxforge/shellpack/internal/status"
)

// Category names, in execution order.
const (
	CategoryShells    = "shells"
	CategoryPackages  = "packages"
	CategoryStarship  = "starship"
	CategoryGitConfig = "git-config"
	CategorySSH       = "ssh"
	CategoryConda     = "conda"
	CategoryHistory   = "history"
	CategoryCloud     = "cloud"
)

// Choices are the answers collected by the wizard.
type Choices struct {
	RepoURL string
	Name    string
	// Type is manifest.TypeFull or manifest.TypeShareable.
	Type string

	SSH       bool
	GitConfig bool
	History   bool
	Cloud     bool
	Conda     bool

	// Shells to back up, in detection order.
	Shells []string
}

// Shareable reports whether sensitive categories are excluded.
func (c Choices) Shareable() bool {
	return c.Type == manifest.TypeShareable
}

// normalized clears the sensitive categories of a shareable backup
// regardless of how the fields were set.
func (c Choices) normalized() Choices {
	if c.Shareable() {
		c.SSH = false
		c.GitConfig = false
		c.History = false
		c.Cloud = false
	}
	return c
}

// Outcome describes a finished (or partially finished) backup.
type Outcome struct {
	Choices  Choices
	Manifest *manifest.Manifest
	// LocalDir is the staged backup tree inside the workspace.
	LocalDir string
	// RepoDir is the working copy the tree was copied into.
	RepoDir    string
	Categories status.Results
	EstimateKB int64
}
