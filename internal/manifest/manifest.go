// Package manifest records what a backup contains and where it came from.
//
// A manifest is written twice: first with an empty checksum, then again once
// the SHA-256 over the staged files is known.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// Backup types.
const (
	TypeFull      = "full"
	TypeShareable = "shareable"
)

// TimeFormat is the layout of Manifest.Created.
const TimeFormat = "2006-01-02T15:04:05Z"

// Indent is the JSON indentation of manifest files.
const Indent = "    "

// MaxNameLen caps sanitized backup names.
const MaxNameLen = 100

// Source describes the machine a backup was taken on.
type Source struct {
	User           string `json:"user"`
	Hostname       string `json:"hostname"`
	OS             string `json:"os"`
	Arch           string `json:"arch"`
	PackageManager string `json:"package_manager"`
	DefaultShell   string `json:"default_shell"`
}

// Manifest is the metadata file at the root of each backup.
type Manifest struct {
	Version    string   `json:"version"`
	Created    string   `json:"created"`
	BackupName string   `json:"backup_name"`
	BackupType string   `json:"backup_type"`
	Source     Source   `json:"source"`
	Shells     []string `json:"shells"`
	Checksum   string   `json:"checksum"`
}

// New returns a manifest stamped with now in UTC.
func New(version, name, backupType string, src Source, shells []string, now time.Time) *Manifest {
	if shells == nil {
		shells = []string{}
	}
	return &Manifest{
		Version:    version,
		Created:    now.UTC().Format(TimeFormat),
		BackupName: name,
		BackupType: backupType,
		Source:     src,
		Shells:     shells,
	}
}

// CreatedTime parses Created. The zero time is returned if it is malformed.
func (m *Manifest) CreatedTime() time.Time {
	t, err := time.Parse(TimeFormat, m.Created)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Create writes m into dir with an empty checksum, computes the checksum of
// everything else in dir, and rewrites the file with it filled in.
func Create(dir string, m *Manifest) error {
	path := filepath.Join(dir, paths.ManifestFile)

	m.Checksum = ""
	if err := fileutil.AtomicWriteJSON(path, m, Indent); err != nil {
		return errors.Wrap(err, "writing manifest")
	}

	sum, err := Checksum(dir)
	if err != nil {
		return errors.Wrap(err, "calculating checksum")
	}
	m.Checksum = sum

	if err := fileutil.AtomicWriteJSON(path, m, Indent); err != nil {
		return errors.Wrap(err, "writing manifest checksum")
	}
	return nil
}

// Read loads the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := fileutil.ReadLimited(path, fileutil.ConfigLimit)
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest %s", path)
	}
	return &m, nil
}

// Load reads the manifest at the root of a backup directory.
func Load(dir string) (*Manifest, error) {
	return Read(filepath.Join(dir, paths.ManifestFile))
}

// Checksum hashes the contents of every regular file under dir, except the
// manifest at its root, in sorted relative-path order.
func Checksum(dir string) (string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == paths.ManifestFile {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "walking %s", dir)
	}
	sort.Strings(files)

	h := sha256.New()
	for _, rel := range files {
		if err := hashFile(h, filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrapf(err, "hashing %s", path)
	}
	return nil
}

// Verify recomputes the checksum of dir and compares it with the recorded
// one. A manifest without a checksum never verifies.
func Verify(dir string, m *Manifest) (bool, error) {
	if m.Checksum == "" {
		return false, nil
	}
	sum, err := Checksum(dir)
	if err != nil {
		return false, err
	}
	return sum == m.Checksum, nil
}

var (
	invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	repeatedDots     = regexp.MustCompile(`\.\.+`)
)

// SanitizeName reduces name to [A-Za-z0-9._-], collapses runs of dots and
// caps the length. An empty result becomes backup-YYYYMMDD-HHMMSS from now.
func SanitizeName(name string, now time.Time) string {
	name = invalidNameChars.ReplaceAllString(name, "")
	name = repeatedDots.ReplaceAllString(name, ".")
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	if name == "" {
		name = "backup-" + now.Format("20060102-150405")
	}
	return name
}

// DefaultName is the suggested backup name: {shell}-{host}-{YYYYMMDD}.
func DefaultName(shell, host string, now time.Time) string {
	return shell + "-" + host + "-" + now.Format("20060102")
}
