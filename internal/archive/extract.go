package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/moxforge/shellpack/internal/errors"
)

// ExtractTarGz extracts archivePath into destDir and returns the number of
// entries written. Absolute names, ".." traversal and links escaping destDir
// are rejected with ErrUnsafePath before anything outside destDir is touched.
//
// Containment is checked against the links already on disk, so a path that
// passes through a symlink pointing outside destDir is refused. Symlink
// entries are created last; no file is ever written through a link from the
// same archive.
func ExtractTarGz(archivePath, destDir string) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, errors.Wrapf(err, "opening %s", archivePath)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "reading gzip header of %s", archivePath)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "creating %s", destDir)
	}
	realRoot, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return 0, errors.Wrapf(err, "resolving %s", destDir)
	}

	var links []pendingLink
	tr := tar.NewReader(gz)
	count := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, errors.Wrapf(err, "reading %s", archivePath)
		}
		if hdr.Typeflag == tar.TypeSymlink {
			target, err := safeTarget(destDir, hdr.Name)
			if err != nil {
				return count, err
			}
			links = append(links, pendingLink{name: hdr.Name, linkname: hdr.Linkname, target: target})
			continue
		}
		if err := extractEntry(tr, hdr, destDir, realRoot); err != nil {
			return count, err
		}
		count++
	}

	for _, l := range links {
		if err := l.create(realRoot); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

type pendingLink struct {
	name     string
	linkname string
	target   string
}

func (l pendingLink) create(realRoot string) error {
	parent, err := containedDir(realRoot, filepath.Dir(l.target))
	if err != nil {
		return errors.Wrapf(err, "symlink %s", l.name)
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}

	dest := filepath.FromSlash(l.linkname)
	if !filepath.IsAbs(dest) {
		// Not filepath.Join: ".." must apply after the links before it resolve.
		dest = parent + string(filepath.Separator) + dest
	}
	if !within(realRoot, resolve(dest)) {
		return errors.Wrapf(ErrUnsafePath, "symlink %s -> %s", l.name, l.linkname)
	}

	target := filepath.Join(parent, filepath.Base(l.target))
	_ = os.Remove(target)
	if err := os.Symlink(l.linkname, target); err != nil {
		return errors.Wrapf(err, "creating symlink %s", target)
	}
	return nil
}

// resolve follows the symlinks of p that exist on disk. The part after the
// longest resolvable prefix is appended lexically.
func resolve(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	sep := string(filepath.Separator)
	parts := strings.Split(p, sep)
	for i := len(parts) - 1; i > 0; i-- {
		prefix := strings.Join(parts[:i], sep)
		if prefix == "" {
			prefix = sep
		}
		if r, err := filepath.EvalSymlinks(prefix); err == nil {
			return filepath.Join(append([]string{r}, parts[i:]...)...)
		}
	}
	return filepath.Clean(p)
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// containedDir resolves dir and refuses it when existing links lead outside
// realRoot.
func containedDir(realRoot, dir string) (string, error) {
	r := resolve(dir)
	if !within(realRoot, r) {
		return "", errors.Wrapf(ErrUnsafePath, "%s resolves outside destination", dir)
	}
	return r, nil
}

// safeTarget resolves an entry name inside root.
func safeTarget(root, name string) (string, error) {
	if name == "" {
		return "", errors.Wrap(ErrUnsafePath, "empty entry name")
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", errors.Wrapf(ErrUnsafePath, "absolute entry %q", name)
	}

	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.Wrapf(ErrUnsafePath, "entry %q escapes destination", name)
	}

	target := filepath.Join(root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrUnsafePath, "entry %q escapes destination", name)
	}
	return target, nil
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, root, realRoot string) error {
	target, err := safeTarget(root, hdr.Name)
	if err != nil {
		return err
	}
	if target == filepath.Clean(root) {
		if hdr.Typeflag == tar.TypeDir {
			return nil
		}
		return errors.Wrapf(ErrUnsafePath, "entry %q replaces destination", hdr.Name)
	}

	parent, err := containedDir(realRoot, filepath.Dir(target))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}
	target = filepath.Join(parent, filepath.Base(target))

	mode := os.FileMode(hdr.Mode).Perm()

	switch hdr.Typeflag {
	case tar.TypeDir:
		if _, err := containedDir(realRoot, target); err != nil {
			return err
		}
		if err := os.MkdirAll(target, mode|0o700); err != nil {
			return errors.Wrapf(err, "creating directory %s", target)
		}
		if err := os.Chmod(target, mode|0o700); err != nil {
			return errors.Wrapf(err, "chmod %s", target)
		}
	case tar.TypeReg:
		_ = os.Remove(target)
		out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
		if err != nil {
			return errors.Wrapf(err, "creating %s", target)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return errors.Wrapf(err, "writing %s", target)
		}
		if err := out.Close(); err != nil {
			return errors.Wrapf(err, "closing %s", target)
		}
		if err := os.Chmod(target, mode); err != nil {
			return errors.Wrapf(err, "chmod %s", target)
		}
	default:
		return nil
	}

	if !hdr.ModTime.IsZero() {
		_ = os.Chtimes(target, hdr.ModTime, hdr.ModTime)
	}
	return nil
}
