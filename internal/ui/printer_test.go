package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/status"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	return New(&out, &errOut, logging.ForTest(t)), &out, &errOut
}

func TestStatusIcons(t *testing.T) {
	p, out, _ := newTestPrinter(t)

	p.Status(status.OK, "Bash config (2 files)")
	p.Status(status.Warn, "Conda environments (timeout or error)")
	p.Status(status.Skip, "Fish config not found")
	p.Status(status.Error, "SSH keys backup failed")
	p.Status(status.Info, "[DRY RUN] Would backup SSH keys")

	want := strings.Join([]string{
		"  [✓] Bash config (2 files)",
		"  [!] Conda environments (timeout or error)",
		"  [→] Fish config not found",
		"  [✗] SSH keys backup failed",
		"  [•] [DRY RUN] Would backup SSH keys",
		"",
	}, "\n")
	assert.Equal(t, want, out.String(), "non-TTY output carries no escape codes")
}

func TestResult(t *testing.T) {
	p, out, _ := newTestPrinter(t)

	p.Result(status.Errorf("cloud", errors.New("boom"), "Cloud credentials (aws) failed"))
	assert.Equal(t, "  [✗] Cloud credentials (aws) failed\n", out.String())
}

func TestErrorGoesToErrWriter(t *testing.T) {
	p, out, errOut := newTestPrinter(t)

	p.Error("Repository URL is required")

	assert.Empty(t, out.String())
	assert.Equal(t, "  [✗] ERROR: Repository URL is required\n", errOut.String())
}

func TestSectionAndHeader(t *testing.T) {
	p, out, _ := newTestPrinter(t)

	p.Header("Backup Shell Environment")
	p.Section("Shell Selection")
	p.Item("Bash")

	s := out.String()
	assert.Contains(t, s, "  Backup Shell Environment\n")
	assert.Contains(t, s, "  Shell Selection\n")
	assert.Contains(t, s, "      • Bash\n")
}

func TestBannerAndComplete(t *testing.T) {
	p, out, _ := newTestPrinter(t)

	p.Banner("1.2.3")
	p.Complete("BACKUP COMPLETE!", "Backup: bash-host-20240101")

	s := out.String()
	assert.Contains(t, s, "ShellPack v1.2.3")
	assert.Contains(t, s, "BACKUP COMPLETE!")
	assert.Contains(t, s, "Backup: bash-host-20240101")
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Zsh", Title("zsh"))
	assert.Equal(t, "Fish", Title("fish"))
}
