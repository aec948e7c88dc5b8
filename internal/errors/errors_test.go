package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with underlying error",
			err:  NewExitError(ErrNoBackups, ExitUser),
			want: "no backups found in repository",
		},
		{
			name: "with wrapped error",
			err:  NewExitError(Wrap(ErrPushFailed, "backup demo"), ExitUser),
			want: "backup demo: failed to push to repository",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitUser),
			want: "exit code 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	err := NewUserError(Wrapf(ErrSSHAuth, "host %s", "github.com"), "check ssh-agent")

	assert.True(t, Is(err, ErrSSHAuth))
	assert.False(t, Is(err, ErrCloneFailed))

	var exitErr *ExitError
	require.True(t, As(fmt.Errorf("running backup: %w", err), &exitErr))
	assert.Equal(t, ExitUser, exitErr.Code)
	assert.Equal(t, "check ssh-agent", exitErr.Suggestion)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", New("boom"), ExitUser},
		{"user error", NewUserError(ErrMissingDependency, ""), ExitUser},
		{"explicit success", NewExitError(ErrCancelled, ExitSuccess), ExitSuccess},
		{"wrapped", Wrap(NewUserError(New("io"), ""), "outer"), ExitUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitCodeConstants(t *testing.T) {
	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitUser)
}
