package restore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moxforge/shellpack/internal/cli/prompt"
	"github.com/moxforge/shellpack/internal/environment"
	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/manifest"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/status"
)

// ListBackups returns the backup directory names under repoDir/backups in
// lexicographic order. A missing backups directory yields no names.
func ListBackups(repoDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(repoDir, paths.BackupsDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "listing backups")
	}

	// ReadDir sorts by name.
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// AvailableShells returns the shells with a non-empty directory in the
// backup, in detection order. bash is assumed when there are none.
func AvailableShells(backupDir string) []string {
	var shells []string
	for _, shell := range environment.Shells {
		entries, err := os.ReadDir(filepath.Join(backupDir, paths.ShellsDir, shell))
		if err == nil && len(entries) > 0 {
			shells = append(shells, shell)
		}
	}
	if len(shells) == 0 {
		return []string{"bash"}
	}
	return shells
}

// selectBackup picks one of names with the fuzzy finder when enabled and the
// input is a terminal, otherwise from a numbered list.
func (o *Orchestrator) selectBackup(repoDir string, names []string) (string, error) {
	s := o.s
	s.Printer.Section("Select Backup")

	if s.Fuzzy && s.Prompt.Interactive() {
		idx, err := s.Prompt.Fuzzy(names, func(i int) string {
			return manifestPreview(paths.BackupPath(repoDir, names[i]))
		})
		if err != nil {
			return "", err
		}
		return names[idx], nil
	}
	if s.Fuzzy {
		s.Logger().Debug("fuzzy finder needs a terminal, using the numbered list")
	}

	return names[s.Prompt.Choice("Choose backup to restore", names)-1], nil
}

// manifestPreview renders a manifest for the fuzzy finder's preview pane.
func manifestPreview(dir string) string {
	m, err := manifest.Load(dir)
	if err != nil {
		return "No manifest"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Name:    %s\n", m.BackupName)
	fmt.Fprintf(&b, "Type:    %s\n", m.BackupType)
	fmt.Fprintf(&b, "Created: %s\n", m.Created)
	fmt.Fprintf(&b, "Source:  %s (%s)\n", m.Source.Hostname, m.Source.OS)
	fmt.Fprintf(&b, "Shells:  %s\n", strings.Join(m.Shells, ", "))
	return b.String()
}

// showManifest prints the backup details and verifies the checksum. A
// missing or unreadable manifest only skips the summary.
func (o *Orchestrator) showManifest(dir string, out *Outcome) {
	s := o.s
	p := s.Printer

	m, err := manifest.Load(dir)
	if err != nil {
		s.Logger().Debug("manifest unavailable", "dir", dir, "error", err)
		return
	}
	out.Manifest = m

	p.Blank()
	p.Hint("Backup details:")
	p.Item("Created: " + orUnknown(m.Created))
	p.Item(fmt.Sprintf("Source: %s (%s)", orUnknown(m.Source.Hostname), orUnknown(m.Source.OS)))
	if m.BackupType != "" {
		p.Item("Type: " + m.BackupType)
	}
	if len(m.Shells) > 0 {
		p.Item("Shells: " + strings.Join(m.Shells, ", "))
	}

	if m.Checksum == "" {
		return
	}
	ok, err := manifest.Verify(dir, m)
	if err != nil {
		s.Logger().Warn("checksum verification failed", "error", err)
		return
	}
	out.ChecksumOK = &ok
	if ok {
		p.Status(status.OK, "Checksum verified")
	} else {
		p.Warning("Checksum mismatch: backup contents changed after it was created")
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func isCancelled(err error) bool {
	return errors.Is(err, prompt.ErrSelectionCancelled)
}
