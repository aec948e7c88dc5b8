// Package prompt provides the interactive questions asked by the backup and
// restore wizards. Every read returns the caller's default when input ends
// (EOF, Ctrl-D) instead of failing.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/ktr0731/go-fuzzyfinder"
	"golang.org/x/term"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/logging"
)

// ErrSelectionCancelled is returned when the fuzzy finder is aborted.
var ErrSelectionCancelled = errors.New("selection cancelled")

// Prompter asks questions on an input/output pair.
type Prompter struct {
	in     *bufio.Reader
	rawIn  io.Reader
	out    io.Writer
	errOut io.Writer

	label *color.Color
	dim   *color.Color
	red   *color.Color
}

// New creates a Prompter using stdin, stdout and stderr.
func New() *Prompter {
	return NewWithIO(os.Stdin, os.Stdout, os.Stderr)
}

// NewWithIO creates a Prompter with custom streams for testing.
func NewWithIO(in io.Reader, out, errOut io.Writer) *Prompter {
	p := &Prompter{
		in:     bufio.NewReader(in),
		rawIn:  in,
		out:    out,
		errOut: errOut,
		label:  color.New(color.FgCyan),
		dim:    color.New(color.FgHiBlack),
		red:    color.New(color.FgRed),
	}
	enable := logging.ColorEnabled(out)
	for _, c := range []*color.Color{p.label, p.dim, p.red} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// readLine returns the trimmed line and false on EOF or read error.
func (p *Prompter) readLine() (string, bool) {
	line, err := p.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(line), true
}

// Input asks for free text. Empty input or EOF yields def.
func (p *Prompter) Input(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "  %s [%s]: ", p.label.Sprint(label), p.dim.Sprint(def))
	} else {
		fmt.Fprintf(p.out, "  %s: ", p.label.Sprint(label))
	}

	line, ok := p.readLine()
	if !ok || line == "" {
		return def
	}
	return line
}

// YesNo asks a yes/no question. Only "y" and "yes" (any case) mean yes;
// empty input or EOF yields def.
func (p *Prompter) YesNo(label string, def bool) bool {
	suffix := "[y/N]"
	if def {
		suffix = "[Y/n]"
	}
	fmt.Fprintf(p.out, "  %s %s: ", p.label.Sprint(label), suffix)

	line, ok := p.readLine()
	if !ok || line == "" {
		return def
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Choice lists options and returns the 1-based index picked. Empty input or
// EOF picks 1. Anything else outside 1..len(options) re-prompts.
func (p *Prompter) Choice(label string, options []string) int {
	fmt.Fprintln(p.out)
	for i, opt := range options {
		fmt.Fprintf(p.out, "      %s %s\n", p.dim.Sprintf("[%d]", i+1), opt)
	}
	fmt.Fprintln(p.out)

	for {
		fmt.Fprintf(p.out, "  %s [%s]: ", p.label.Sprint(label), p.dim.Sprint("1"))

		line, ok := p.readLine()
		if !ok || line == "" {
			return 1
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return n
		}
		fmt.Fprintf(p.errOut, "  %s Invalid choice. Please enter 1-%d\n", p.red.Sprint("[✗] ERROR:"), len(options))
	}
}

// Password reads a secret without echo when input is a terminal.
// EOF yields "".
func (p *Prompter) Password(label string) string {
	fmt.Fprintf(p.out, "  %s: ", p.label.Sprint(label))

	if f, ok := p.rawIn.(interface{ Fd() uintptr }); ok && logging.IsTTY(f) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return ""
		}
		return string(b)
	}

	line, ok := p.readLine()
	if !ok {
		return ""
	}
	return line
}

// Interactive reports whether input comes from a terminal.
func (p *Prompter) Interactive() bool {
	return logging.IsTTY(p.rawIn)
}

// Fuzzy opens a fuzzy finder over options and returns the 0-based index
// picked. preview may be nil.
func (p *Prompter) Fuzzy(options []string, preview func(i int) string) (int, error) {
	if len(options) == 0 {
		return -1, errors.New("nothing to select")
	}

	opts := []fuzzyfinder.Option{fuzzyfinder.WithPromptString("backup> ")}
	if preview != nil {
		opts = append(opts, fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i < 0 {
				return ""
			}
			return preview(i)
		}))
	}

	idx, err := fuzzyfinder.Find(options, func(i int) string { return options[i] }, opts...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return -1, ErrSelectionCancelled
		}
		return -1, errors.Wrap(err, "fuzzy selection failed")
	}
	return idx, nil
}
