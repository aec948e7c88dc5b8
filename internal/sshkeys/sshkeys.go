// Package sshkeys generates and repairs the user's SSH key files.
package sshkeys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// KeyName is the file name of generated private keys.
const KeyName = "id_ed25519"

var (
	// ErrInvalidEmail is returned when the key comment is not an email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrKeyExists is returned instead of overwriting an existing key.
	ErrKeyExists = errors.New("SSH key already exists")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Key is a generated key pair on disk.
type Key struct {
	PrivatePath string
	PublicPath  string
	// AuthorizedKey is the public key line, without trailing newline.
	AuthorizedKey string
}

// Generate writes a new ed25519 key pair to ~/.ssh/id_ed25519 with email as
// the comment. An empty passphrase leaves the private key unencrypted.
func Generate(home, email, passphrase string) (*Key, error) {
	return generate(rand.Reader, home, email, passphrase)
}

func generate(random io.Reader, home, email, passphrase string) (*Key, error) {
	if !ValidEmail(email) {
		return nil, errors.Wrapf(ErrInvalidEmail, "%q", email)
	}

	dir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating .ssh directory")
	}

	key := &Key{
		PrivatePath: filepath.Join(dir, KeyName),
		PublicPath:  filepath.Join(dir, KeyName+".pub"),
	}
	if _, err := os.Lstat(key.PrivatePath); err == nil {
		return nil, errors.Wrapf(ErrKeyExists, "%s", key.PrivatePath)
	}

	pub, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, errors.Wrap(err, "generating ed25519 key")
	}

	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, email)
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, email, []byte(passphrase))
	}
	if err != nil {
		return nil, errors.Wrap(err, "encoding private key")
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, errors.Wrap(err, "encoding public key")
	}
	key.AuthorizedKey = strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))) + " " + email

	if err := fileutil.AtomicWriteFile(key.PrivatePath, pem.EncodeToMemory(block), 0o600); err != nil {
		return nil, errors.Wrap(err, "writing private key")
	}
	if err := fileutil.AtomicWriteFile(key.PublicPath, []byte(key.AuthorizedKey+"\n"), 0o644); err != nil {
		return nil, errors.Wrap(err, "writing public key")
	}
	return key, nil
}

// FixPermissions applies the modes ssh insists on to ~/.ssh and its files.
// A missing directory is not an error.
func FixPermissions(home string) error {
	dir := filepath.Join(home, ".ssh")
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "checking .ssh")
	}
	if !info.IsDir() {
		return nil
	}

	if err := os.Chmod(dir, 0o700); err != nil {
		return errors.Wrap(err, "chmod .ssh")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "reading .ssh")
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		mode, ok := fileMode(e.Name())
		if !ok {
			continue
		}
		if err := os.Chmod(filepath.Join(dir, e.Name()), mode); err != nil {
			return errors.Wrapf(err, "chmod %s", e.Name())
		}
	}
	return nil
}

func fileMode(name string) (os.FileMode, bool) {
	switch {
	case strings.HasSuffix(name, ".pub"), name == "known_hosts":
		return 0o644, true
	case strings.HasPrefix(name, "id_"), name == "config", name == "authorized_keys":
		return 0o600, true
	}
	return 0, false
}
