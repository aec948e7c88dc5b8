package conda

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/runner"
	"github.com/moxforge/shellpack/internal/status"
)

const envList = `# conda environments:
#
base                  *  /home/dev/miniconda3
data-science             /home/dev/miniconda3/envs/data-science
py_311                   /home/dev/miniconda3/envs/py_311
weird.name               /home/dev/miniconda3/envs/weird.name

`

const envExport = `name: data-science
channels:
  - conda-forge
dependencies:
  - python=3.11
  - numpy
`

func fakeInstall(t *testing.T, dir string) string {
	t.Helper()
	bin := filepath.Join(dir, "bin", "conda")
	require.NoError(t, os.MkdirAll(filepath.Dir(bin), 0o755))
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	return bin
}

func TestParseEnvList(t *testing.T) {
	assert.Equal(t, []string{"base", "data-science", "py_311"}, ParseEnvList(envList))
	assert.Empty(t, ParseEnvList("# only comments\n\n"))
}

func TestParseEnvList_MarkerOnlyLine(t *testing.T) {
	assert.Empty(t, ParseEnvList("*  /opt/conda\n"))
}

func TestParseEnv(t *testing.T) {
	env, err := ParseEnv([]byte(envExport))
	require.NoError(t, err)
	assert.Equal(t, "data-science", env.Name)
	assert.Equal(t, []string{"conda-forge"}, env.Channels)
	assert.Len(t, env.Dependencies, 2)

	_, err = ParseEnv([]byte("name: [unclosed"))
	assert.Error(t, err)

	_, err = ParseEnv([]byte("prefix: /x\n"))
	assert.Error(t, err)
}

func TestLocate(t *testing.T) {
	home := t.TempDir()

	_, ok := Locate(home)
	assert.False(t, ok)

	fakeInstall(t, filepath.Join(home, "miniforge3"))
	fakeInstall(t, filepath.Join(home, "anaconda3"))

	dir, ok := Locate(home)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(home, "anaconda3"), dir, "anaconda3 is probed before miniforge3")
}

func TestInstallerURL(t *testing.T) {
	tests := []struct{ os, arch, suffix string }{
		{"macos", "arm64", "MacOSX-arm64"},
		{"macos", "amd64", "MacOSX-x86_64"},
		{"linux", "amd64", "Linux-x86_64"},
		{"wsl", "amd64", "Linux-x86_64"},
		{"linux", "arm64", "Linux-aarch64"},
	}
	for _, tt := range tests {
		got := InstallerURL(tt.os, tt.arch)
		assert.True(t, strings.HasSuffix(got, "Miniconda3-latest-"+tt.suffix+".sh"), got)
	}
}

func TestBackup(t *testing.T) {
	home := t.TempDir()
	bin := fakeInstall(t, filepath.Join(home, "miniconda3"))
	dest := filepath.Join(t.TempDir(), "conda")

	fake := (&runner.Fake{}).
		On(runner.Key(bin, "env", "list"), runner.Result{Stdout: envList}).
		On(runner.Key(bin, "env", "export", "-n", "base"), runner.Result{Stdout: "name: base\ndependencies: [python]\n"}).
		On(runner.Key(bin, "env", "export", "-n", "data-science"), runner.Result{Stdout: envExport}).
		On(runner.Key(bin, "env", "export", "-n", "py_311"), runner.Result{ExitCode: 1, Err: runner.ErrTimeout})

	h := &Handler{Runner: fake, Home: home}
	res := h.Backup(context.Background(), dest)

	assert.Equal(t, status.OK, res.Status)
	assert.Equal(t, "Conda environments (2)", res.Message)
	assert.FileExists(t, filepath.Join(dest, "base.yml"))
	assert.FileExists(t, filepath.Join(dest, "data-science.yml"))
	assert.NoFileExists(t, filepath.Join(dest, "py_311.yml"))

	for _, c := range fake.Commands() {
		if strings.Contains(runner.Key(c.Name, c.Args...), "export") {
			assert.Equal(t, runner.TimeoutExport, c.Timeout)
		} else {
			assert.Equal(t, runner.TimeoutQuick, c.Timeout)
		}
	}
}

func TestBackup_InvalidExportKept(t *testing.T) {
	home := t.TempDir()
	bin := fakeInstall(t, filepath.Join(home, "miniconda3"))
	dest := t.TempDir()

	fake := (&runner.Fake{}).
		On(runner.Key(bin, "env", "list"), runner.Result{Stdout: "base * /x\n"}).
		On(runner.Key(bin, "env", "export", "-n", "base"), runner.Result{Stdout: "{{{"})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.NewContext(context.Background(), logger)

	res := (&Handler{Runner: fake, Home: home}).Backup(ctx, dest)
	assert.Equal(t, status.OK, res.Status)
	assert.Equal(t, "Conda environments (1)", res.Message)

	data, err := os.ReadFile(filepath.Join(dest, "base.yml"))
	require.NoError(t, err)
	assert.Equal(t, "{{{", string(data))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "conda export failed YAML validation")
	assert.Contains(t, buf.String(), "env=base")
}

func TestBackup_ListTimeout(t *testing.T) {
	home := t.TempDir()
	bin := fakeInstall(t, filepath.Join(home, "miniconda3"))

	fake := (&runner.Fake{}).
		On(runner.Key(bin, "env", "list"), runner.Result{ExitCode: 1, Stderr: "timeout", Err: runner.ErrTimeout})

	res := (&Handler{Runner: fake, Home: home}).Backup(context.Background(), t.TempDir())
	assert.Equal(t, status.Warn, res.Status)
	assert.Equal(t, "Conda environments (timeout or error)", res.Message)
	assert.ErrorIs(t, res.Err, runner.ErrTimeout)
}

func TestBackup_NotFoundAndDryRun(t *testing.T) {
	fake := &runner.Fake{}

	res := (&Handler{Runner: fake, Home: t.TempDir()}).Backup(context.Background(), t.TempDir())
	assert.Equal(t, status.Skip, res.Status)
	assert.Equal(t, "Conda not found", res.Message)

	home := t.TempDir()
	fakeInstall(t, filepath.Join(home, "miniconda3"))
	res = (&Handler{Runner: fake, Home: home, DryRun: true}).Backup(context.Background(), t.TempDir())
	assert.Equal(t, status.Info, res.Status)
	assert.Empty(t, fake.Calls())
}

func writeExports(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n+".yml"), []byte(envExport), 0o644))
	}
	return dir
}

func TestRestore_ExistingInstall(t *testing.T) {
	home := t.TempDir()
	bin := fakeInstall(t, filepath.Join(home, "miniconda3"))
	src := writeExports(t, "base", "data-science", "ml")

	fake := &runner.Fake{Default: runner.Result{ExitCode: 1}}
	h := &Handler{Runner: fake, Home: home}
	res := h.Restore(context.Background(), RestoreOptions{SrcDir: src, OS: "linux", Arch: "amd64"})

	assert.Equal(t, status.OK, res.Status)
	assert.Equal(t, "Conda environments (2)", res.Message, "failures still count as attempts")

	assert.False(t, fake.Called("curl"))
	assert.True(t, fake.Called(runner.Key(bin, "init", "fish")))
	assert.True(t, fake.Called(runner.Key(bin, "env", "create", "-f", filepath.Join(src, "ml.yml"), "-n", "ml")))
	assert.False(t, fake.Called(runner.Key(bin, "env", "create", "-f", filepath.Join(src, "base.yml"))))
}

func TestRestore_InstallsMiniconda(t *testing.T) {
	home := t.TempDir()
	installDir := filepath.Join(home, "miniconda3")
	tmp := t.TempDir()
	installer := filepath.Join(tmp, "miniconda.sh")
	src := writeExports(t, "tools")

	fake := &runner.Fake{}
	fake.Hook(runner.Key("bash", installer, "-b", "-p", installDir), func(runner.Cmd) {
		fakeInstall(t, installDir)
	})

	h := &Handler{Runner: fake, Home: home}
	res := h.Restore(context.Background(), RestoreOptions{
		SrcDir: src, OS: "macos", Arch: "arm64", InstallDir: installDir, TempDir: tmp,
	})

	assert.Equal(t, status.OK, res.Status)
	calls := fake.Calls()
	require.GreaterOrEqual(t, len(calls), 3)
	assert.Equal(t, runner.Key("curl", "-sL", InstallerURL("macos", "arm64"), "-o", installer), calls[0])
	assert.True(t, fake.Called(runner.Key(Binary(installDir), "env", "create")))
}

func TestRestore_DownloadFails(t *testing.T) {
	home := t.TempDir()
	src := writeExports(t, "tools")
	fake := (&runner.Fake{}).On(
		runner.Key("curl", "-sL", InstallerURL("linux", "amd64"), "-o", filepath.Join(home, "miniconda.sh")),
		runner.Result{ExitCode: 22},
	)

	res := (&Handler{Runner: fake, Home: home}).Restore(context.Background(), RestoreOptions{
		SrcDir: src, OS: "linux", Arch: "amd64", InstallDir: filepath.Join(home, "miniconda3"), TempDir: home,
	})
	assert.Equal(t, status.Warn, res.Status)
	assert.False(t, fake.Called("bash"))
}

func TestRestore_NothingInBackupAndDryRun(t *testing.T) {
	fake := &runner.Fake{}
	h := &Handler{Runner: fake, Home: t.TempDir(), DryRun: true}

	res := h.Restore(context.Background(), RestoreOptions{SrcDir: t.TempDir()})
	assert.Equal(t, status.Skip, res.Status)

	res = h.Restore(context.Background(), RestoreOptions{SrcDir: writeExports(t, "a", "b")})
	assert.Equal(t, status.Info, res.Status)
	assert.Equal(t, "[DRY RUN] Would restore 2 Conda environments", res.Message)
	assert.Empty(t, fake.Calls())
}
