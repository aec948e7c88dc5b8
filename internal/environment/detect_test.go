package environment

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookPathFrom(present ...string) LookPathFunc {
	set := map[string]bool{}
	for _, p := range present {
		set[p] = true
	}
	return func(name string) (string, error) {
		if set[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		goos, machine, release string
		wantOS, wantArch       string
	}{
		{"darwin", "arm64", "23.1.0", OSMacOS, "arm64"},
		{"darwin", "x86_64", "23.1.0", OSMacOS, "amd64"},
		{"linux", "x86_64", "6.5.0-generic", OSLinux, "amd64"},
		{"linux", "aarch64", "6.1.0", OSLinux, "arm64"},
		{"linux", "armv7l", "5.10.0", OSLinux, "arm"},
		{"linux", "x86_64", "5.15.90.1-Microsoft-standard-WSL2", OSWSL, "amd64"},
		{"freebsd", "riscv64", "14.0", "freebsd", "riscv64"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.machine, func(t *testing.T) {
			osName, arch := classify(tt.goos, tt.machine, tt.release)
			assert.Equal(t, tt.wantOS, osName)
			assert.Equal(t, tt.wantArch, arch)
		})
	}
}

func TestDetectPackageManager(t *testing.T) {
	assert.Equal(t, "brew", DetectPackageManager(OSMacOS, lookPathFrom()))
	assert.Equal(t, "apt", DetectPackageManager(OSLinux, lookPathFrom("pacman", "apt")))
	assert.Equal(t, "dnf", DetectPackageManager(OSWSL, lookPathFrom("yum", "dnf")))
	assert.Equal(t, "zypper", DetectPackageManager(OSLinux, lookPathFrom("zypper", "apk")))
	assert.Equal(t, Unknown, DetectPackageManager(OSLinux, lookPathFrom()))
}

func TestDetectShell(t *testing.T) {
	t.Setenv("SHELL", "/usr/local/bin/fish")
	assert.Equal(t, "fish", DetectShell())

	t.Setenv("SHELL", "")
	assert.Equal(t, "bash", DetectShell())
}

func TestUser(t *testing.T) {
	t.Setenv("USER", "alice")
	assert.Equal(t, "alice", User())

	t.Setenv("USER", "")
	assert.Equal(t, Unknown, User())
}

func TestInstalledShells(t *testing.T) {
	assert.Equal(t, []string{"bash", "zsh"}, InstalledShells(lookPathFrom("zsh", "bash")))
	assert.Equal(t, []string{"fish", "bash", "zsh"}, InstalledShells(lookPathFrom("zsh", "bash", "fish")))
	assert.Nil(t, InstalledShells(lookPathFrom()))
}

func TestDetect(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	t.Setenv("USER", "bob")

	info := Detect(lookPathFrom("apt", "bash", "zsh"))

	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
	assert.Equal(t, "zsh", info.DefaultShell)
	assert.Equal(t, "bob", info.User)
	assert.Equal(t, []string{"bash", "zsh"}, info.InstalledShells)
	assert.NotEmpty(t, info.Hostname)
}

func TestFreeSpaceMB(t *testing.T) {
	dir := t.TempDir()

	_, err := FreeSpaceMB(dir + "/not/yet/created")
	assert.NoError(t, err)
}
