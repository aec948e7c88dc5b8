package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	assert.Equal(t, "/home/u", Expand("/home/u", "~"))
	assert.Equal(t, "/home/u/.config/fish", Expand("/home/u", "~/.config/fish"))
	assert.Equal(t, "/opt/conda", Expand("/home/u", "/opt/conda"))
	assert.Equal(t, "~user/x", Expand("/home/u", "~user/x"))
}

func TestBackupPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp/repo", "backups", "bash-host-20240101"),
		BackupPath("/tmp/repo", "bash-host-20240101"))
}

func TestBackupSubdirs(t *testing.T) {
	assert.Contains(t, BackupSubdirs, filepath.Join("shells", "fish"))
	assert.Contains(t, BackupSubdirs, filepath.Join("config", "cloud"))
	assert.Contains(t, BackupSubdirs, "history")
	assert.Len(t, BackupSubdirs, 8)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir, 0))
	require.NoError(t, EnsureDir(dir, 0), "idempotent")

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, os.FileMode(DefaultDirPerm), fi.Mode().Perm())
}

func TestExistsAndIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".bashrc")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, Exists(file))
	assert.False(t, IsDir(file))
	assert.True(t, IsDir(dir))
	assert.False(t, Exists(filepath.Join(dir, "missing")))
}

func TestLogDir(t *testing.T) {
	assert.Equal(t, AppName, filepath.Base(LogDir()))
	assert.Equal(t, AppName, filepath.Base(ConfigSearchDir()))
}

func TestShellFiles(t *testing.T) {
	assert.Equal(t, BashFiles, ShellFiles("bash"))
	assert.Equal(t, ZshFiles, ShellFiles("zsh"))
	assert.Nil(t, ShellFiles("fish"))
}

func TestCloudSources(t *testing.T) {
	names := make([]string, 0, len(CloudSources))
	for _, c := range CloudSources {
		names = append(names, c.Archive())
	}
	assert.Equal(t, []string{"aws.tar.gz", "azure.tar.gz", "gcloud.tar.gz"}, names)
	assert.Equal(t, ".config", CloudSources[2].Parent)
}
