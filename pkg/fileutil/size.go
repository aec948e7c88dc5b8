package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// SizeKB returns the size of a file, or the total size of regular files
// under a directory, in whole kilobytes. Unreadable entries count as zero.
func SizeKB(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size() / 1024
	}

	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if fi, err := d.Info(); err == nil {
				total += fi.Size()
			}
		}
		return nil
	})
	return total / 1024
}
