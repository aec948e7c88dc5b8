package doctor

import "fmt"

// Required lists the binaries every backup and restore needs.
var Required = []string{"git", "curl", "tar"}

// Optional lists binaries that enable extra behavior when present.
var Optional = []string{"jq", "ssh"}

var installPrefixes = map[string]string{
	"apt":    "sudo apt update && sudo apt install -y",
	"brew":   "brew install",
	"dnf":    "sudo dnf install -y",
	"yum":    "sudo yum install -y",
	"pacman": "sudo pacman -S",
	"zypper": "sudo zypper install -y",
	"apk":    "sudo apk add",
}

// InstallCommand returns the command that installs pkg with pm, or "" when
// pm has no known install form.
func InstallCommand(pm, pkg string) string {
	prefix, ok := installPrefixes[pm]
	if !ok {
		return ""
	}
	return prefix + " " + pkg
}

// LookPathFunc resolves a binary name to a path.
type LookPathFunc func(name string) (string, error)

// BinaryCheck reports whether a binary is on PATH.
type BinaryCheck struct {
	Binary         string
	Required       bool
	PackageManager string
	LookPath       LookPathFunc
}

var _ Check = (*BinaryCheck)(nil)

// Name returns the binary name.
func (c *BinaryCheck) Name() string { return c.Binary }

// Category returns "required" or "optional".
func (c *BinaryCheck) Category() string {
	if c.Required {
		return "required"
	}
	return "optional"
}

// Run looks up the binary.
func (c *BinaryCheck) Run() *CheckResult {
	res := &CheckResult{Name: c.Binary, Category: c.Category()}

	path, err := c.LookPath(c.Binary)
	if err == nil {
		res.Status = SeverityPass
		res.Path = path
		res.Message = fmt.Sprintf("%s found at %s", c.Binary, path)
		return res
	}

	if c.Required {
		res.Status = SeverityError
		res.Message = fmt.Sprintf("%s is required but not installed", c.Binary)
		res.FixHint = InstallCommand(c.PackageManager, c.Binary)
		return res
	}

	res.Status = SeverityWarning
	res.Message = fmt.Sprintf("%s not found (optional)", c.Binary)
	return res
}

// DependencyRunner returns a Runner loaded with a check for every required
// and optional binary.
func DependencyRunner(pm string, lookPath LookPathFunc) *Runner {
	r := NewRunner()
	for _, name := range Required {
		r.AddCheck(&BinaryCheck{Binary: name, Required: true, PackageManager: pm, LookPath: lookPath})
	}
	for _, name := range Optional {
		r.AddCheck(&BinaryCheck{Binary: name, PackageManager: pm, LookPath: lookPath})
	}
	return r
}
