package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moxforge/shellpack/internal/environment"
	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/runner"
	"github.com/moxforge/shellpack/internal/wizard"
)

type harness struct {
	home    string
	cfgPath string
	logPath string
	fake    *runner.Fake
	stdout  bytes.Buffer
	stderr  bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{home: t.TempDir(), fake: &runner.Fake{}}
	h.cfgPath = filepath.Join(t.TempDir(), "config.yaml")
	h.logPath = filepath.Join(t.TempDir(), "logs", "run.log")
	cfg := "home: " + h.home + "\nworkspace_dir: " + t.TempDir() + "\n"
	if err := os.WriteFile(h.cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return h
}

// exec runs the CLI with input fed to the wizard.
func (h *harness) exec(t *testing.T, input string, args ...string) (*cliState, error) {
	t.Helper()
	root, st := newRootCmd(
		wizard.WithRunner(h.fake),
		wizard.WithEnvironment(environment.Info{OS: "linux", Arch: "amd64", PackageManager: "apt", DefaultShell: "bash"}),
	)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(input))
	root.SetOut(&h.stdout)
	root.SetErr(&h.stderr)
	err := run(t.Context(), root, st)
	return st, err
}

func TestNoArgsShowsHelp(t *testing.T) {
	h := newHarness(t)
	if _, err := h.exec(t, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := h.stdout.String()
	for _, want := range []string{"Usage:", "backup", "restore"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec(t, "", "frobnicate")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := errors.ExitCode(err); got != errors.ExitUser {
		t.Errorf("ExitCode = %d, want %d", got, errors.ExitUser)
	}
	if !strings.Contains(h.stderr.String(), "Error: Unknown command: frobnicate") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	if _, err := h.exec(t, "", "version"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(h.stdout.String(), "shellpack version dev") {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestVersionFlag(t *testing.T) {
	h := newHarness(t)
	if _, err := h.exec(t, "", "--version"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.stdout.String(); got != "shellpack version dev\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestBackupWithoutRepoURL(t *testing.T) {
	h := newHarness(t)
	st, err := h.exec(t, "\n", "--config", h.cfgPath, "--log-file", h.logPath, "backup")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, errors.ErrRepoURLRequired) {
		t.Errorf("err = %v, want ErrRepoURLRequired", err)
	}
	if got := errors.ExitCode(err); got != errors.ExitUser {
		t.Errorf("ExitCode = %d, want %d", got, errors.ExitUser)
	}
	if !strings.Contains(h.stdout.String(), "Backup Repository") {
		t.Errorf("wizard did not start:\n%s", h.stdout.String())
	}
	if !strings.Contains(h.stderr.String(), "Hint: enter a git URL") {
		t.Errorf("stderr missing hint: %q", h.stderr.String())
	}
	if st.cfg.Home != h.home {
		t.Errorf("Home = %q, want %q", st.cfg.Home, h.home)
	}

	data, err := os.ReadFile(h.logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "shellpack started") {
		t.Errorf("log file missing start record:\n%s", data)
	}
}

func TestFlagOverrides(t *testing.T) {
	h := newHarness(t)
	st, _ := h.exec(t, "\n", "--config", h.cfgPath, "--log-file", h.logPath, "-vv", "--dry-run", "--log-format", "json", "restore", "--fuzzy")
	if st.cfg == nil {
		t.Fatal("config was not loaded")
	}
	if !st.cfg.DryRun {
		t.Error("DryRun = false, want true")
	}
	if st.cfg.Verbose != 2 {
		t.Errorf("Verbose = %d, want 2", st.cfg.Verbose)
	}
	if st.cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", st.cfg.LogFormat)
	}
	if !st.logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("debug level should be enabled at -vv")
	}
	if st.logger.Enabled(t.Context(), logging.LevelTrace) {
		t.Error("trace level should be disabled at -vv")
	}
}

func TestInvalidLogFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec(t, "", "--config", h.cfgPath, "--log-file", h.logPath, "--log-format", "xml", "backup")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := errors.ExitCode(err); got != errors.ExitUser {
		t.Errorf("ExitCode = %d, want %d", got, errors.ExitUser)
	}
}

func TestMissingConfigFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec(t, "", "--config", filepath.Join(h.home, "absent.yaml"), "--log-file", h.logPath, "backup")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(h.stderr.String(), "Hint: check the config file") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestDefaultLogFile(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := defaultLogFile(now)
	if filepath.Base(got) != "shellpack_20260304_050607.log" {
		t.Errorf("defaultLogFile = %q", got)
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("unknown flag: --nope"), "Error: unknown flag: --nope\n"},
		{"suggestion", errors.NewUserError(errors.New("x"), "try again"), "Error: x\nHint: try again\n"},
		{"no suggestion", errors.NewExitError(errors.New("disk full"), errors.ExitUser), "Error: disk full\n"},
		{"cancelled", errors.NewExitError(errors.New("cancelled"), errors.ExitSuccess), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			report(&buf, tt.err)
			if buf.String() != tt.want {
				t.Errorf("report() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestGenDoc(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(t.TempDir(), "man")
	if _, err := h.exec(t, "", "gen-doc", "--dir", dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"shellpack.1", "shellpack-backup.1", "shellpack-restore.1"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(h.stdout.String(), "Man pages generated") {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestGenDocRequiresDir(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec(t, "", "gen-doc")
	if got := errors.ExitCode(err); got != errors.ExitUser {
		t.Errorf("ExitCode = %d, want %d", got, errors.ExitUser)
	}
}
