package runner

import (
	"context"
	"os/exec"
	"strings"
	"sync"
)

// Fake is a scripted Runner for tests. Results are keyed by the full command
// line ("git push -u origin main"). Unscripted commands succeed with empty
// output unless Default is set.
type Fake struct {
	mu sync.Mutex

	// Results maps a command line to its scripted result.
	Results map[string]Result
	// Default is returned for unscripted commands.
	Default Result
	// Hooks run before the result is returned, keyed like Results. They can
	// create files a real command would have produced.
	Hooks map[string]func(Cmd)
	// Paths lists binaries LookPath resolves. Nil resolves everything.
	Paths map[string]string

	calls []Cmd
}

var _ Runner = (*Fake)(nil)

// Key renders the lookup key for a command line.
func Key(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// On scripts the result of a command line and returns f for chaining.
func (f *Fake) On(line string, res Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Results == nil {
		f.Results = make(map[string]Result)
	}
	f.Results[line] = res
	return f
}

// Hook registers a side effect for a command line.
func (f *Fake) Hook(line string, fn func(Cmd)) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Hooks == nil {
		f.Hooks = make(map[string]func(Cmd))
	}
	f.Hooks[line] = fn
	return f
}

// WithPaths restricts LookPath to the given binaries.
func (f *Fake) WithPaths(names ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Paths = make(map[string]string, len(names))
	for _, n := range names {
		f.Paths[n] = "/usr/bin/" + n
	}
	return f
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, c Cmd) Result {
	key := Key(c.Name, c.Args...)

	f.mu.Lock()
	f.calls = append(f.calls, c)
	hook := f.Hooks[key]
	res, ok := f.Results[key]
	if !ok {
		res = f.Default
	}
	f.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return res
}

// LookPath implements Runner.
func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Paths == nil {
		return "/usr/bin/" + name, nil
	}
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", exec.ErrNotFound
}

// Calls returns the command lines run so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = Key(c.Name, c.Args...)
	}
	return out
}

// Commands returns the recorded Cmd values.
func (f *Fake) Commands() []Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Cmd(nil), f.calls...)
}

// Called reports whether any recorded command line starts with prefix.
func (f *Fake) Called(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
