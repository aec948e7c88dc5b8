// Package errors provides error handling conventions for the shellpack CLI.
//
// It re-exports the wrapping helpers from github.com/cockroachdb/errors so
// callers need a single import, defines sentinel errors for the fatal wizard
// states, and an ExitError type carrying the process exit code.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific failure conditions
// using [Is]:
//
//	if errors.Is(err, errors.ErrNoBackups) {
//	    // repository has nothing to restore
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): completed, or cancelled by the user during restore
//   - ExitUser (1): any failure, including missing dependencies, missing
//     input, SSH, clone, push and workspace I/O errors
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and an optional
// suggestion printed after the error message:
//
//	err := errors.NewUserError(errors.ErrRepoURLRequired, "Pass a repository URL")
//	var exitErr *errors.ExitError
//	if errors.As(err, &exitErr) {
//	    os.Exit(exitErr.Code)
//	}
package errors
