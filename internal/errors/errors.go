package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related or environment failure.
	ExitUser = 1
)

// Sentinel errors for the fatal states of the backup and restore wizards.
var (
	// ErrMissingDependency indicates a required executable is not installed.
	ErrMissingDependency = crdb.New("missing required dependencies")

	// ErrRepoURLRequired indicates the user left the repository URL empty.
	ErrRepoURLRequired = crdb.New("repository URL is required")

	// ErrSSHAuth indicates SSH authentication against the git host failed.
	ErrSSHAuth = crdb.New("SSH authentication failed")

	// ErrCloneFailed indicates the backup repository could not be cloned.
	ErrCloneFailed = crdb.New("failed to clone repository")

	// ErrPushFailed indicates the backup could not be pushed to the remote.
	ErrPushFailed = crdb.New("failed to push to repository")

	// ErrNoBackups indicates the repository holds no backups.
	ErrNoBackups = crdb.New("no backups found in repository")

	// ErrCancelled indicates the user declined to continue.
	ErrCancelled = crdb.New("cancelled by user")
)

// Re-exported helpers from github.com/cockroachdb/errors.
var (
	New    = crdb.New
	Newf   = crdb.Newf
	Errorf = crdb.Errorf
	Wrap   = crdb.Wrap
	Wrapf  = crdb.Wrapf
	Is     = crdb.Is
	As     = crdb.As

	// CombineErrors keeps the first error and attaches the second as a
	// secondary cause.
	CombineErrors = crdb.CombineErrors
)

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code carried by err.
// nil maps to ExitSuccess and errors without an ExitError map to ExitUser.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUser
}
