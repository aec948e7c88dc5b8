// Package rollback records reversible restore actions and undoes them on
// request. Operations are typed values; nothing is passed to a shell.
package rollback

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/pkg/fileutil"
)

// Op is one compensating action.
type Op interface {
	Undo(ctx context.Context) error
	String() string
}

// RemovePath deletes a file or directory tree that a restore created.
type RemovePath struct {
	Path string
}

// Undo implements Op.
func (o RemovePath) Undo(context.Context) error {
	if err := os.RemoveAll(o.Path); err != nil {
		return errors.Wrapf(err, "removing %s", o.Path)
	}
	return nil
}

func (o RemovePath) String() string { return "remove " + o.Path }

// RestoreFile puts back a file that a restore overwrote from the copy saved
// before the overwrite.
type RestoreFile struct {
	Target string
	Saved  string
	Mode   fs.FileMode
}

// Undo implements Op.
func (o RestoreFile) Undo(context.Context) error {
	if err := fileutil.CopyFile(o.Saved, o.Target); err != nil {
		return errors.Wrapf(err, "restoring %s", o.Target)
	}
	if o.Mode != 0 {
		if err := os.Chmod(o.Target, o.Mode); err != nil {
			return errors.Wrapf(err, "chmod %s", o.Target)
		}
	}
	return nil
}

func (o RestoreFile) String() string { return "restore " + o.Target + " from " + o.Saved }

// Stack holds operations in the order they were recorded.
type Stack struct {
	mu  sync.Mutex
	ops []Op
}

// Push records op.
func (s *Stack) Push(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

// Len returns the number of pending operations.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// Ops returns a copy of the pending operations, oldest first.
func (s *Stack) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Op(nil), s.ops...)
}

// Execute undoes every operation, newest first, then clears the stack.
// All operations are attempted; the first failure is returned with the
// rest attached.
func (s *Stack) Execute(ctx context.Context) error {
	s.mu.Lock()
	ops := s.ops
	s.ops = nil
	s.mu.Unlock()

	logger := logging.FromContext(ctx)

	var err error
	for i := len(ops) - 1; i >= 0; i-- {
		logger.Info("rolling back", "op", ops[i].String())
		if opErr := ops[i].Undo(ctx); opErr != nil {
			logger.Error("rollback step failed", "op", ops[i].String(), "error", opErr)
			err = errors.CombineErrors(err, opErr)
		}
	}
	return err
}

// Journal snapshots files before they are overwritten and records the
// matching undo operation.
type Journal struct {
	Stack *Stack
	// Dir receives the saved copies.
	Dir string

	n int
}

// NewJournal returns a Journal saving copies under dir.
func NewJournal(dir string) *Journal {
	return &Journal{Stack: &Stack{}, Dir: dir}
}

// Track must be called before target is written. An existing regular file is
// copied aside and a RestoreFile is recorded; an existing directory records
// nothing since restores merge into it; a missing path records RemovePath.
func (j *Journal) Track(target string) error {
	info, err := os.Lstat(target)
	switch {
	case os.IsNotExist(err):
		j.Stack.Push(RemovePath{Path: target})
		return nil
	case err != nil:
		return errors.Wrapf(err, "checking %s", target)
	case info.IsDir():
		return nil
	case !info.Mode().IsRegular():
		return nil
	}

	j.n++
	saved := filepath.Join(j.Dir, strconv.Itoa(j.n)+"-"+filepath.Base(target))
	if err := fileutil.CopyFile(target, saved); err != nil {
		return errors.Wrapf(err, "saving %s", target)
	}
	j.Stack.Push(RestoreFile{Target: target, Saved: saved, Mode: info.Mode().Perm()})
	return nil
}

// TrackAll tracks every path, stopping at the first failure.
func (j *Journal) TrackAll(targets ...string) error {
	for _, t := range targets {
		if err := j.Track(t); err != nil {
			return err
		}
	}
	return nil
}

// Summary describes the pending operations for display.
func (j *Journal) Summary() string {
	n := j.Stack.Len()
	if n == 1 {
		return "1 change"
	}
	return fmt.Sprintf("%d changes", n)
}
