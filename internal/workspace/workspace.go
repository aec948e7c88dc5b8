// Package workspace owns the process-scoped temporary directory that holds
// the repository working copy and staged backup tree.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
)

// Workspace is a temporary directory released exactly once.
type Workspace struct {
	dir string

	mu       sync.Mutex
	released bool
	hooks    []func(context.Context) error
}

// Acquire creates a fresh shellpack_* directory under baseDir (os.TempDir
// when empty). Callers must defer Release.
func Acquire(baseDir string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating workspace parent")
	}

	dir, err := os.MkdirTemp(baseDir, "shellpack_")
	if err != nil {
		return nil, errors.Wrap(err, "creating workspace")
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins elem onto the workspace root.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.dir}, elem...)...)
}

// Sub creates and returns a subdirectory of the workspace.
func (w *Workspace) Sub(name string) (string, error) {
	p := w.Path(name)
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", errors.Wrapf(err, "creating %s", name)
	}
	return p, nil
}

// OnRelease registers a hook run before the directory is removed.
// Hooks run in reverse order of registration.
func (w *Workspace) OnRelease(hook func(context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks = append(w.hooks, hook)
}

// Release runs the hooks and removes the directory. Calls after the first
// are no-ops.
func (w *Workspace) Release(ctx context.Context) error {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return nil
	}
	w.released = true
	hooks := append([]func(context.Context) error(nil), w.hooks...)
	w.mu.Unlock()

	var err error
	for i := len(hooks) - 1; i >= 0; i-- {
		if hookErr := hooks[i](ctx); hookErr != nil {
			err = errors.CombineErrors(err, hookErr)
		}
	}

	if rmErr := os.RemoveAll(w.dir); rmErr != nil {
		err = errors.CombineErrors(err, errors.Wrap(rmErr, "removing workspace"))
	}
	logging.FromContext(ctx).Debug("workspace released", "dir", w.dir)
	return err
}
