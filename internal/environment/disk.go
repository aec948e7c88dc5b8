package environment

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/moxforge/shellpack/internal/errors"
)

// FreeSpaceMB returns the space available to unprivileged users on the
// filesystem holding dir. A missing dir is resolved through its parents.
func FreeSpaceMB(dir string) (uint64, error) {
	target := dir
	for {
		if _, err := os.Stat(target); err == nil {
			break
		}
		parent := filepath.Dir(target)
		if parent == target {
			break
		}
		target = parent
	}

	var st unix.Statfs_t
	if err := unix.Statfs(target, &st); err != nil {
		return 0, errors.Wrapf(err, "statfs %s", target)
	}
	return uint64(st.Bavail) * uint64(st.Bsize) / (1024 * 1024), nil
}
