// Package ui renders the wizard's terminal output: banners, section
// headers, per-category status lines and the completion box.
package ui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/moxforge/shellpack/internal/logging"
	"github.com/moxforge/shellpack/internal/status"
)

const width = 62

var titleCaser = cases.Title(language.English)

// Title returns name with its first letter upper-cased ("zsh" -> "Zsh").
func Title(name string) string {
	return titleCaser.String(name)
}

// Printer writes formatted wizard output.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger

	cyan, green, yellow, red, blue, gray, bold *color.Color
}

// New creates a Printer. Colors are enabled only when out is a color-capable
// terminal. Status lines are also logged to logger at info level.
func New(out, errOut io.Writer, logger *slog.Logger) *Printer {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	p := &Printer{
		out:    out,
		errOut: errOut,
		logger: logger,
		cyan:   color.New(color.FgCyan),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		blue:   color.New(color.FgBlue),
		gray:   color.New(color.FgHiBlack),
		bold:   color.New(color.Bold),
	}

	enable := logging.ColorEnabled(out)
	for _, c := range []*color.Color{p.cyan, p.green, p.yellow, p.red, p.blue, p.gray, p.bold} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Out returns the writer prompts should use.
func (p *Printer) Out() io.Writer { return p.out }

// Banner prints the program banner.
func (p *Printer) Banner(version string) {
	line := strings.Repeat("─", width)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.cyan.Sprint("┌"+line+"┐"))
	p.boxLine(p.cyan, p.bold.Sprint("ShellPack")+" v"+version, len("ShellPack v"+version))
	p.boxLine(p.cyan, "Cross-Platform Shell Environment Backup & Restore", 49)
	fmt.Fprintln(p.out, p.cyan.Sprint("└"+line+"┘"))
	fmt.Fprintln(p.out)
}

func (p *Printer) boxLine(border *color.Color, text string, visible int) {
	pad := width - 2 - visible
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(p.out, "%s  %s%s%s\n", border.Sprint("│"), text, strings.Repeat(" ", pad), border.Sprint("│"))
}

// Header prints a major heading.
func (p *Printer) Header(title string) {
	rule := strings.Repeat("═", width)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.cyan.Sprint(rule))
	fmt.Fprintln(p.out, p.cyan.Sprint("  "+title))
	fmt.Fprintln(p.out, p.cyan.Sprint(rule))
	fmt.Fprintln(p.out)
}

// Section prints a step heading.
func (p *Printer) Section(title string) {
	rule := strings.Repeat("─", width)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.yellow.Sprint(rule))
	fmt.Fprintln(p.out, p.yellow.Sprint("  "+title))
	fmt.Fprintln(p.out, p.yellow.Sprint(rule))
}

// Status prints a one-line outcome such as "  [✓] Bash config (2 files)".
func (p *Printer) Status(st status.Status, message string) {
	icon, c := p.style(st)
	fmt.Fprintf(p.out, "  %s %s\n", c.Sprint("["+icon+"]"), message)
	p.logger.Info(message, "status", string(st))
}

// Result prints a category result as a status line.
func (p *Printer) Result(r status.Result) {
	p.Status(r.Status, r.Message)
	if r.Err != nil {
		p.logger.Warn("category detail", "category", r.Category, "error", r.Err)
	}
}

func (p *Printer) style(st status.Status) (string, *color.Color) {
	switch st {
	case status.OK:
		return "✓", p.green
	case status.Error:
		return "✗", p.red
	case status.Warn:
		return "!", p.yellow
	case status.Skip:
		return "→", p.gray
	case status.Info:
		return "•", p.blue
	default:
		return " ", p.gray
	}
}

// Item prints an indented bullet.
func (p *Printer) Item(message string) {
	fmt.Fprintf(p.out, "      %s %s\n", p.gray.Sprint("•"), message)
}

// Line prints an indented plain line.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.out, "  "+format+"\n", args...)
}

// Hint prints an indented dimmed line.
func (p *Printer) Hint(format string, args ...any) {
	fmt.Fprintln(p.out, "  "+p.gray.Sprintf(format, args...))
}

// Highlight prints an indented cyan line, used for paths and commands.
func (p *Printer) Highlight(format string, args ...any) {
	fmt.Fprintln(p.out, "  "+p.cyan.Sprintf(format, args...))
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.out)
}

// Warning prints a warning line.
func (p *Printer) Warning(message string) {
	fmt.Fprintf(p.out, "  %s %s\n", p.yellow.Sprint("[!] WARNING:"), message)
	p.logger.Warn(message)
}

// Error prints an error line to the error writer.
func (p *Printer) Error(message string) {
	fmt.Fprintf(p.errOut, "  %s %s\n", p.red.Sprint("[✗] ERROR:"), message)
	p.logger.Error(message)
}

// Complete prints the closing box with key/value lines.
func (p *Printer) Complete(title string, lines ...string) {
	edge := strings.Repeat("═", width)
	blank := p.green.Sprint("║") + strings.Repeat(" ", width) + p.green.Sprint("║")

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.green.Sprint("╔"+edge+"╗"))
	fmt.Fprintln(p.out, blank)
	fmt.Fprintf(p.out, "%s   %s\n", p.green.Sprint("║"), p.bold.Sprint(title))
	fmt.Fprintln(p.out, blank)
	for _, l := range lines {
		fmt.Fprintf(p.out, "%s   %s\n", p.green.Sprint("║"), l)
	}
	fmt.Fprintln(p.out, blank)
	fmt.Fprintln(p.out, p.green.Sprint("╚"+edge+"╝"))
	fmt.Fprintln(p.out)
}

// Cyan colors s for inline emphasis.
func (p *Printer) Cyan(s string) string { return p.cyan.Sprint(s) }

// Gray dims s.
func (p *Printer) Gray(s string) string { return p.gray.Sprint(s) }

// Green colors s.
func (p *Printer) Green(s string) string { return p.green.Sprint(s) }

// Yellow colors s.
func (p *Printer) Yellow(s string) string { return p.yellow.Sprint(s) }

// Red colors s.
func (p *Printer) Red(s string) string { return p.red.Sprint(s) }

// Bold emboldens s.
func (p *Printer) Bold(s string) string { return p.bold.Sprint(s) }
