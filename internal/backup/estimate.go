package backup

import (
	"fmt"
	"path/filepath"

	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// condaEstimateKB stands in for exported environment files.
const condaEstimateKB = 50

// EstimateKB approximates the size of the backup from the user's home.
func EstimateKB(home string, c Choices) int64 {
	c = c.normalized()
	at := func(rel string) string { return filepath.Join(home, rel) }

	var total int64
	for _, shell := range c.Shells {
		switch shell {
		case "fish":
			total += fileutil.SizeKB(at(paths.FishConfigDir))
		case "bash", "zsh":
			for _, f := range paths.ShellFiles(shell) {
				total += fileutil.SizeKB(at(f))
			}
			if shell == "zsh" {
				total += fileutil.SizeKB(at(paths.OhMyZshDir))
			}
		}
	}

	total += fileutil.SizeKB(at(paths.StarshipConfig))
	if c.GitConfig {
		total += fileutil.SizeKB(at(paths.GitConfig))
	}
	if c.SSH {
		total += fileutil.SizeKB(at(paths.SSHHome))
	}
	if c.Conda && (paths.IsDir(at("miniconda3")) || paths.IsDir(at("anaconda3"))) {
		total += condaEstimateKB
	}
	if c.History {
		for _, f := range paths.HistoryFiles {
			total += fileutil.SizeKB(at(f))
		}
		total += fileutil.SizeKB(at(filepath.Join(paths.FishHistoryDir, "fish_history")))
	}
	return total
}

// FormatSize renders KB as "NMB" from 1024KB up, else "NKB".
func FormatSize(kb int64) string {
	if kb >= 1024 {
		return fmt.Sprintf("%dMB", kb/1024)
	}
	return fmt.Sprintf("%dKB", kb)
}
