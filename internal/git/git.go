// Package git wraps the git and ssh executables used to move backups to and
// from the remote repository.
package git

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/runner"
)

// ErrInvalidURL is returned by ValidateURL.
var ErrInvalidURL = errors.New("invalid repository URL")

// Push branches, tried in order.
var pushBranches = []string{"main", "master"}

const (
	cloneTimeout = 5 * time.Minute
	pushTimeout  = runner.TimeoutNetwork
)

var (
	schemeURL = regexp.MustCompile(`^(https?|git|ssh)://([^@/\s]+@)?[a-zA-Z0-9._-]+(:[0-9]+)?(/[a-zA-Z0-9._/~-]*)?$`)
	fileURL   = regexp.MustCompile(`^file:///[a-zA-Z0-9._/~-]+$`)
	scpURL    = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+:[a-zA-Z0-9._/~-]+\.git$`)
	sshHost   = regexp.MustCompile(`^git@([^:]+):`)
)

// ValidateURL rejects anything that is not an http(s), git, ssh or file URL
// or an scp-like user@host:path.git. Option-looking and transport-helper
// strings ("-o...", "ext::") never match.
func ValidateURL(url string) error {
	if url == "" {
		return errors.Wrap(ErrInvalidURL, "empty")
	}
	if schemeURL.MatchString(url) || fileURL.MatchString(url) || scpURL.MatchString(url) {
		return nil
	}
	return errors.Wrapf(ErrInvalidURL, "%q", url)
}

// IsURL reports whether s passes ValidateURL.
func IsURL(s string) bool {
	return ValidateURL(s) == nil
}

// SSHHost returns the host of a git@host: URL. Other forms report false.
func SSHHost(url string) (string, bool) {
	m := sshHost.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Client runs git through a Runner.
type Client struct {
	Runner runner.Runner
}

// New returns a Client.
func New(r runner.Runner) *Client {
	return &Client{Runner: r}
}

func (c *Client) git(ctx context.Context, dir string, timeout time.Duration, args ...string) runner.Result {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	return c.Runner.Run(ctx, runner.Cmd{Name: "git", Args: args, Timeout: timeout})
}

// Clone makes a shallow clone of url into dest.
func (c *Client) Clone(ctx context.Context, url, dest string, depth int) error {
	logging.FromContext(ctx).Info("cloning repository", "url", url, "dest", dest)

	res := c.git(ctx, "", cloneTimeout, "clone", "--depth", strconv.Itoa(depth), url, dest)
	if !res.OK() {
		return errors.Wrapf(errors.ErrCloneFailed, "%s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Init creates an empty repository in dest with url as origin.
func (c *Client) Init(ctx context.Context, dest, url string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(err, "creating repository directory")
	}

	if res := c.git(ctx, dest, runner.TimeoutQuick, "init"); !res.OK() {
		return errors.Newf("git init failed: %s", strings.TrimSpace(res.Stderr))
	}
	// init.defaultBranch varies between machines.
	if res := c.git(ctx, dest, runner.TimeoutQuick, "symbolic-ref", "HEAD", "refs/heads/"+pushBranches[0]); !res.OK() {
		logging.FromContext(ctx).Debug("keeping default initial branch",
			"want", pushBranches[0], "exit_code", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
	}

	if res := c.git(ctx, dest, runner.TimeoutQuick, "remote", "add", "origin", url); !res.OK() {
		return errors.Newf("adding remote: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// PushResult describes a successful push.
type PushResult struct {
	// NothingToCommit is set when the commit failed because nothing was staged.
	NothingToCommit bool
	Branch          string
	UpToDate        bool
}

// Push stages everything in dir, commits with message and pushes to main,
// falling back to master. A commit with nothing staged is not an error and
// the push is still attempted.
func (c *Client) Push(ctx context.Context, dir, message string) (PushResult, error) {
	logger := logging.FromContext(ctx)
	logger.Info("pushing to repository", "message", message)

	var out PushResult

	if res := c.git(ctx, dir, runner.TimeoutQuick, "add", "-A"); !res.OK() {
		return out, errors.Wrapf(errors.ErrPushFailed, "git add: %s", strings.TrimSpace(res.Stderr))
	}

	if res := c.git(ctx, dir, runner.TimeoutQuick, "commit", "-m", message); !res.OK() {
		diff := c.Runner.Run(ctx, runner.Cmd{
			Name:     "git",
			Args:     []string{"-C", dir, "diff", "--cached", "--quiet"},
			Timeout:  runner.TimeoutQuick,
			Expected: true,
		})
		if diff.ExitCode == 0 && diff.Err == nil {
			logger.Info("no changes to commit")
			out.NothingToCommit = true
		}
	}

	var lastErr string
	for _, branch := range pushBranches {
		res := c.git(ctx, dir, pushTimeout, "push", "-u", "origin", branch)
		if res.OK() {
			out.Branch = branch
			return out, nil
		}
		if strings.Contains(res.Stderr, "Everything up-to-date") {
			out.Branch = branch
			out.UpToDate = true
			return out, nil
		}
		lastErr = strings.TrimSpace(res.Stderr)
	}
	return out, errors.Wrapf(errors.ErrPushFailed, "%s", lastErr)
}

// VerifySSH checks that the SSH key is accepted by the host of a git@host:
// URL. Other URL forms are not checked.
//
// Success is inferred from the greeting in ssh's combined output, which
// arrives on stderr with a non-zero exit. This is a heuristic that holds for
// GitHub, GitLab and Bitbucket.
func (c *Client) VerifySSH(ctx context.Context, url string) error {
	host, ok := SSHHost(url)
	if !ok {
		return nil
	}

	res := c.Runner.Run(ctx, runner.Cmd{
		Name: "ssh",
		Args: []string{
			"-T",
			"-o", "StrictHostKeyChecking=no",
			"-o", "ConnectTimeout=10",
			"git@" + host,
		},
		Timeout:  runner.TimeoutSSH,
		Expected: true,
	})

	if Authenticated(res.Combined()) {
		return nil
	}
	return errors.Wrapf(errors.ErrSSHAuth, "host %s", host)
}

// Authenticated reports whether ssh -T output signals an accepted key.
func Authenticated(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "successfully authenticated") || strings.Contains(lower, "hi ")
}

// ConfigGlobal sets a key in the user's global git config.
func (c *Client) ConfigGlobal(ctx context.Context, key, value string) error {
	res := c.git(ctx, "", runner.TimeoutQuick, "config", "--global", key, value)
	if !res.OK() {
		return errors.Newf("git config %s: %s", key, strings.TrimSpace(res.Stderr))
	}
	return nil
}
