package config

import (
	"path/filepath"
	"strings"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/git"
)

// Validation errors for configuration fields.
var (
	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidLogFormat indicates log_format is neither text nor json.
	ErrInvalidLogFormat = errors.New("log_format must be text or json")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Home == "" {
		errs = append(errs, &PathError{Field: "home", Path: cfg.Home, Err: ErrInvalidPath})
	}

	for _, f := range []struct{ field, path string }{
		{"home", cfg.Home},
		{"log_file", cfg.LogFile},
		{"workspace_dir", cfg.WorkspaceDir},
		{"conda.install_dir", cfg.Conda.InstallDir},
	} {
		if err := validatePath(f.path); err != nil {
			errs = append(errs, &PathError{Field: f.field, Path: f.path, Err: err})
		}
	}

	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, errors.Wrapf(ErrInvalidLogFormat, "got %q", cfg.LogFormat))
	}

	if cfg.RepoURL != "" {
		if err := git.ValidateURL(cfg.RepoURL); err != nil {
			errs = append(errs, errors.Wrap(err, "repo_url"))
		}
	}

	return errs
}

// validatePath checks that a configured path is absolute and well-formed.
// Empty paths mean "use default".
func validatePath(path string) error {
	if path == "" {
		return nil
	}
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	if !filepath.IsAbs(filepath.Clean(path)) {
		return errors.Wrapf(ErrInvalidPath, "%s is not absolute", path)
	}
	return nil
}

// PathError represents an error for a specific path field.
type PathError struct {
	Field string
	Path  string
	Err   error
}

func (e *PathError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Path
}

func (e *PathError) Unwrap() error {
	return e.Err
}
