// Package runner executes external commands with bounded run time and
// captured output. All subprocesses shellpack starts go through a Runner so
// orchestrators can be tested with a scripted Fake.
package runner

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/moxforge/shellpack/internal/doctor"
	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
)

// ErrTimeout is set on a Result whose command exceeded Cmd.Timeout.
var ErrTimeout = errors.New("command timed out")

// Common timeouts.
const (
	TimeoutQuick   = 10 * time.Second
	TimeoutSSH     = 15 * time.Second
	TimeoutExport  = 30 * time.Second
	TimeoutNetwork = 60 * time.Second
	TimeoutInstall = 300 * time.Second
)

// Cmd describes one subprocess invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	// Timeout bounds the run; zero means no limit beyond ctx.
	Timeout time.Duration
	Stdin   io.Reader
	// Interactive connects the process to the terminal instead of capturing
	// output (chsh, installers that prompt).
	Interactive bool
	// Expected marks a non-zero exit as a normal answer, such as
	// "git diff --quiet", so it is not logged as a failure.
	Expected bool
}

// String renders the command line with credentials masked.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, doctor.MaskArgs(c.Args)...), " ")
}

// Result is the outcome of a command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is non-nil when the process could not start or timed out.
	Err error
}

// OK reports whether the command exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() string {
	return r.Stdout + r.Stderr
}

// Runner runs commands and resolves binaries.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) Result
	LookPath(name string) (string, error)
}

// Exec runs real processes via os/exec.
type Exec struct{}

var _ Runner = Exec{}

// LookPath implements Runner.
func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run implements Runner. It never returns a Go error; failures are reported
// through Result and logged with the command line and captured stderr.
func (Exec) Run(ctx context.Context, c Cmd) Result {
	logger := logging.FromContext(ctx)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	// Grandchildren holding the output pipes must not outlive the deadline.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	if c.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdin = c.Stdin
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	logger.Debug("running command", "cmd", c.String(), "dir", c.Dir)
	start := time.Now()
	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res = Result{ExitCode: 1, Stderr: "timeout", Err: ErrTimeout}
		logger.Error("command timed out", "cmd", c.String(), "timeout", c.Timeout)
		return res
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			if res.ExitCode < 0 {
				res.ExitCode = 1
			}
		} else {
			res.ExitCode = 1
			res.Stderr = err.Error()
			res.Err = errors.Wrapf(err, "running %s", c.Name)
		}
	}

	logger.Log(ctx, logging.LevelTrace, "command output",
		"cmd", c.String(), "stdout", res.Stdout, "elapsed", time.Since(start))

	if !res.OK() {
		level := slog.LevelError
		if c.Expected {
			level = slog.LevelDebug
		}
		logger.Log(ctx, level, "command failed",
			"cmd", c.String(), "exit", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
	}

	return res
}
