package packages

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/moxforge/shellpack/internal/runner"
	"github.com/moxforge/shellpack/internal/status"
)

func TestExport_Table(t *testing.T) {
	tests := []struct {
		pm        string
		wantCalls []string
		wantFiles []string
		wantMsg   string
	}{
		{
			pm:        "apt",
			wantCalls: []string{"apt list --installed", "apt-mark showmanual"},
			wantFiles: []string{"apt_packages.txt", "apt_manual.txt"},
			wantMsg:   "APT packages",
		},
		{
			pm:        "brew",
			wantCalls: []string{"brew list --formula", "brew list --cask", "brew leaves"},
			wantFiles: []string{"brew_formula.txt", "brew_cask.txt", "brew_leaves.txt"},
			wantMsg:   "Homebrew packages",
		},
		{
			pm:        "dnf",
			wantCalls: []string{"rpm -qa"},
			wantFiles: []string{"rpm_packages.txt"},
			wantMsg:   "RPM packages",
		},
		{
			pm:        "yum",
			wantCalls: []string{"rpm -qa"},
			wantFiles: []string{"rpm_packages.txt"},
			wantMsg:   "RPM packages",
		},
		{
			pm:        "pacman",
			wantCalls: []string{"pacman -Qe", "pacman -Qm"},
			wantFiles: []string{"pacman_packages.txt", "pacman_aur.txt"},
			wantMsg:   "Pacman packages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.pm, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "packages")
			fake := &runner.Fake{Default: runner.Result{Stdout: "pkg-a\npkg-b\n"}}

			res := Export(context.Background(), fake, tt.pm, dir, false)
			if res.Status != status.OK {
				t.Fatalf("status = %s, want ok (%s)", res.Status, res)
			}
			if res.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", res.Message, tt.wantMsg)
			}

			calls := fake.Calls()
			if len(calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", calls, tt.wantCalls)
			}
			for i := range calls {
				if calls[i] != tt.wantCalls[i] {
					t.Errorf("call[%d] = %q, want %q", i, calls[i], tt.wantCalls[i])
				}
			}

			for _, f := range tt.wantFiles {
				if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
					t.Errorf("expected %s: %v", f, err)
				}
			}
		})
	}
}

func TestExport_AptDropsHeader(t *testing.T) {
	dir := t.TempDir()
	fake := (&runner.Fake{}).
		On("apt list --installed", runner.Result{Stdout: "Listing... Done\ngit/jammy,now 1:2.34 amd64 [installed]\n"})

	Export(context.Background(), fake, "apt", dir, false)

	data, err := os.ReadFile(filepath.Join(dir, "apt_packages.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "git/jammy,now 1:2.34 amd64 [installed]\n"; got != want {
		t.Errorf("apt_packages.txt = %q, want %q", got, want)
	}
}

func TestExport_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	fake := (&runner.Fake{}).
		On("pacman -Qe", runner.Result{Stdout: "fish 3.7\n"}).
		On("pacman -Qm", runner.Result{ExitCode: 1, Stderr: "error"})

	res := Export(context.Background(), fake, "pacman", dir, false)
	if res.Status != status.OK {
		t.Errorf("status = %s, want ok", res.Status)
	}
	if _, err := os.Stat(filepath.Join(dir, "pacman_aur.txt")); !os.IsNotExist(err) {
		t.Errorf("pacman_aur.txt should not exist, err = %v", err)
	}
}

func TestExport_AllFail(t *testing.T) {
	fake := &runner.Fake{Default: runner.Result{ExitCode: 1}}

	res := Export(context.Background(), fake, "dnf", t.TempDir(), false)
	if res.Status != status.Warn {
		t.Errorf("status = %s, want warn", res.Status)
	}
	if res.Err == nil {
		t.Error("expected the failing command in Err")
	}
}

func TestExport_Unsupported(t *testing.T) {
	fake := &runner.Fake{}

	res := Export(context.Background(), fake, "zypper", t.TempDir(), false)
	if res.Status != status.Skip {
		t.Errorf("status = %s, want skip", res.Status)
	}
	if res.Message != "Package manager not supported: zypper" {
		t.Errorf("message = %q", res.Message)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("no commands expected, got %v", fake.Calls())
	}
}

func TestExport_DryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "packages")
	fake := &runner.Fake{}

	res := Export(context.Background(), fake, "brew", dir, true)
	if res.Status != status.Info {
		t.Errorf("status = %s, want info", res.Status)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("dry run ran %v", fake.Calls())
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("dry run must not create files")
	}
}

func TestInstallCommand(t *testing.T) {
	cmd, ok := InstallCommand("fish", "pacman")
	if !ok {
		t.Fatal("pacman should be supported")
	}
	if got := runner.Key(cmd.Name, cmd.Args...); got != "sudo pacman -S --noconfirm fish" {
		t.Errorf("command = %q", got)
	}

	// The shared prefix must not be mutated between calls.
	a, _ := InstallCommand("zsh", "apt")
	b, _ := InstallCommand("fish", "apt")
	if a.Args[len(a.Args)-1] != "zsh" || b.Args[len(b.Args)-1] != "fish" {
		t.Errorf("prefix aliasing: %v %v", a.Args, b.Args)
	}

	if _, ok := InstallCommand("fish", "unknown"); ok {
		t.Error("unknown package manager should not be supported")
	}
}

func TestRefreshCommand(t *testing.T) {
	if _, ok := RefreshCommand("brew"); ok {
		t.Error("brew needs no refresh")
	}
	cmd, ok := RefreshCommand("apt")
	if !ok || runner.Key(cmd.Name, cmd.Args...) != "sudo apt-get update -qq" {
		t.Errorf("apt refresh = %v %v", cmd, ok)
	}
}

func TestFilesAndSupported(t *testing.T) {
	if !Supported("yum") || Supported("apk") {
		t.Error("Supported mismatch")
	}
	if got := Files("brew"); len(got) != 3 || got[2] != "brew_leaves.txt" {
		t.Errorf("Files(brew) = %v", got)
	}
}
