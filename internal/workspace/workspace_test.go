package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	base := t.TempDir()

	ws, err := Acquire(base)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir()), "shellpack_"))
	assert.DirExists(t, ws.Dir())

	sub, err := ws.Sub("git")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "f"), []byte("x"), 0o600))
	assert.Equal(t, filepath.Join(ws.Dir(), "git", "f"), ws.Path("git", "f"))

	require.NoError(t, ws.Release(context.Background()))
	assert.NoDirExists(t, ws.Dir())

	// Idempotent.
	require.NoError(t, ws.Release(context.Background()))
}

func TestAcquire_Unique(t *testing.T) {
	base := t.TempDir()
	a, err := Acquire(base)
	require.NoError(t, err)
	b, err := Acquire(base)
	require.NoError(t, err)

	assert.NotEqual(t, a.Dir(), b.Dir())
}

func TestRelease_HooksReverseOrder(t *testing.T) {
	ws, err := Acquire(t.TempDir())
	require.NoError(t, err)

	var order []string
	ws.OnRelease(func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	ws.OnRelease(func(context.Context) error {
		// Still present while hooks run.
		assert.DirExists(t, ws.Dir())
		order = append(order, "second")
		return assert.AnError
	})

	err = ws.Release(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"second", "first"}, order)
	assert.NoDirExists(t, ws.Dir(), "directory is removed even when a hook fails")
}

func TestRelease_OnEveryExitPath(t *testing.T) {
	base := t.TempDir()
	var dir string

	run := func() (err error) {
		ws, err := Acquire(base)
		if err != nil {
			return err
		}
		defer ws.Release(context.Background())
		dir = ws.Dir()
		return assert.AnError
	}

	assert.ErrorIs(t, run(), assert.AnError)
	assert.NoDirExists(t, dir)
}
