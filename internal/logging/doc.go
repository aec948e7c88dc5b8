// Package logging provides structured logging for the shellpack CLI using slog.
//
// Every run appends JSON records to a per-process log file in the state
// directory. Records are mirrored to stderr through the console [Handler]
// only when verbose mode is enabled or the record is an error.
//
// # Basic Usage
//
//	logger, closeFn, err := logging.Setup(logging.Options{
//		Verbosity: 1,
//		Stderr:    os.Stderr,
//		LogFiles:  []string{filepath.Join(paths.LogDir(), "shellpack.log")},
//	})
//	defer closeFn()
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//	}
package logging
