// Package archive creates and extracts the gzip-compressed tarballs used for
// directory-shaped artifacts (fish config, Oh-My-Zsh, SSH keys, cloud
// credentials). Entries are always stored under a short relative root name,
// never an absolute source path.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/moxforge/shellpack/internal/errors"
)

// ErrUnsafePath is returned when an archive entry would land outside the
// extraction root.
var ErrUnsafePath = errors.New("unsafe path in archive")

// CreateTarGz archives the tree at srcDir into dest. Every entry is named
// rootName/<relative path>; rootName itself is the first entry.
func CreateTarGz(srcDir, dest, rootName string) (err error) {
	if rootName == "" || strings.Contains(rootName, "/") || rootName == ".." || rootName == "." {
		return errors.Newf("invalid archive root name %q", rootName)
	}

	info, err := os.Stat(srcDir)
	if err != nil {
		return errors.Wrapf(err, "stat %s", srcDir)
	}
	if !info.IsDir() {
		return errors.Newf("%s is not a directory", srcDir)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "creating parent of %s", dest)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dest)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing %s", dest)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		name := rootName
		if rel != "." {
			name = path.Join(rootName, filepath.ToSlash(rel))
		}
		return addEntry(tw, p, name, d)
	})
	if walkErr != nil {
		return errors.Wrapf(walkErr, "archiving %s", srcDir)
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "finalizing tar stream")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "finalizing gzip stream")
	}
	return nil
}

func addEntry(tw *tar.Writer, p, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(p); err != nil {
			return err
		}
	} else if !info.IsDir() && !info.Mode().IsRegular() {
		// Sockets such as ssh-agent control paths are skipped.
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	// Ownership is meaningless on the restoring machine.
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	src, err := os.Open(p)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(tw, src)
	return err
}
