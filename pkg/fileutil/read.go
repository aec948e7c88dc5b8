package fileutil

import (
	"io"
	"os"

	"github.com/moxforge/shellpack/internal/errors"
)

// ConfigLimit bounds the files loaded whole into memory: manifests,
// starship.toml and conda exports.
const ConfigLimit int64 = 4 << 20

// ErrTooLarge is wrapped with the path when a file exceeds its limit.
var ErrTooLarge = errors.New("file too large")

// ReadLimited reads path whole and refuses anything over limit bytes,
// including files that grow while being read.
func ReadLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrTooLarge, "%s exceeds %d bytes", path, limit)
	}
	return data, nil
}
