package sshkeys

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestValidEmail(t *testing.T) {
	valid := []string{"dev@example.com", "first.last+tag@sub.example.co.uk", "a_b%c@x.io"}
	invalid := []string{"", "dev", "dev@", "@example.com", "dev@example", "dev@example.c", "dev example@x.com"}

	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestGenerate(t *testing.T) {
	home := t.TempDir()
	seed := bytes.NewReader(bytes.Repeat([]byte{7}, 64))

	key, err := generate(seed, home, "dev@example.com", "")
	require.NoError(t, err)

	info, err := os.Stat(key.PrivatePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	info, err = os.Stat(key.PublicPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Join(home, ".ssh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	assert.True(t, strings.HasPrefix(key.AuthorizedKey, "ssh-ed25519 "))
	assert.True(t, strings.HasSuffix(key.AuthorizedKey, " dev@example.com"))

	privPEM, err := os.ReadFile(key.PrivatePath)
	require.NoError(t, err)
	signer, err := ssh.ParsePrivateKey(privPEM)
	require.NoError(t, err)

	pubLine, err := os.ReadFile(key.PublicPath)
	require.NoError(t, err)
	parsed, comment, _, _, err := ssh.ParseAuthorizedKey(pubLine)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", comment)
	assert.Equal(t, signer.PublicKey().Marshal(), parsed.Marshal())
}

func TestGenerate_Passphrase(t *testing.T) {
	home := t.TempDir()

	key, err := Generate(home, "dev@example.com", "hunter22")
	require.NoError(t, err)

	privPEM, err := os.ReadFile(key.PrivatePath)
	require.NoError(t, err)

	_, err = ssh.ParsePrivateKey(privPEM)
	var missing *ssh.PassphraseMissingError
	assert.ErrorAs(t, err, &missing)

	_, err = ssh.ParsePrivateKeyWithPassphrase(privPEM, []byte("hunter22"))
	assert.NoError(t, err)
}

func TestGenerate_Errors(t *testing.T) {
	home := t.TempDir()

	_, err := Generate(home, "not-an-email", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.NoDirExists(t, filepath.Join(home, ".ssh"))

	_, err = Generate(home, "dev@example.com", "")
	require.NoError(t, err)
	_, err = Generate(home, "dev@example.com", "")
	assert.ErrorIs(t, err, ErrKeyExists)
}

func TestFixPermissions(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".ssh")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	files := map[string]os.FileMode{
		"id_rsa":          0o600,
		"id_rsa.pub":      0o644,
		"config":          0o600,
		"known_hosts":     0o644,
		"authorized_keys": 0o600,
		"notes.txt":       0o664,
	}
	for name := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
		require.NoError(t, os.Chmod(p, 0o664))
	}

	require.NoError(t, FixPermissions(home))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	for name, want := range files {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, want, info.Mode().Perm(), name)
	}
}

func TestFixPermissions_NoDir(t *testing.T) {
	assert.NoError(t, FixPermissions(t.TempDir()))
}
