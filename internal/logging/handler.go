package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/moxforge/shellpack/internal/doctor"
)

// Handler renders each record as one console line:
//
//	14:03:09 [INFO ] category finished category=shells count=2
//
// Values with spaces, quotes or '=' are quoted. Secrets are masked before
// opts.ReplaceAttr runs.
type Handler struct {
	opts   slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	color  bool
	prefix string
	groups []string
}

// NewHandler returns a console handler writing to out.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{out: out, mu: &sync.Mutex{}, color: ColorEnabled(out)}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled reports whether level reaches the configured minimum (info by
// default).
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle writes r as a single line. The write is serialized across handlers
// derived with WithAttrs or WithGroup.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b bytes.Buffer
	if !r.Time.IsZero() {
		b.WriteString(h.paint(color.FgHiBlack, r.Time.Format(time.TimeOnly)))
		b.WriteByte(' ')
	}
	b.WriteString(h.levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, h.groups, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(b.Bytes())
	return err
}

// WithAttrs renders attrs once so later records only append them.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b bytes.Buffer
	for _, a := range attrs {
		h.writeAttr(&b, h.groups, a)
	}
	nh := *h
	nh.prefix = h.prefix + b.String()
	return &nh
}

// WithGroup qualifies later keys as group.key.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(slices.Clip(h.groups), name)
	return &nh
}

func (h *Handler) writeAttr(b *bytes.Buffer, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(slices.Clip(groups), a.Key)
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(b, groups, ga)
		}
		return
	}

	a = slog.Any(a.Key, redact(a))
	if h.opts.ReplaceAttr != nil {
		if a = h.opts.ReplaceAttr(groups, a); a.Equal(slog.Attr{}) {
			return
		}
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	b.WriteByte(' ')
	b.WriteString(h.paint(color.FgCyan, key))
	b.WriteByte('=')
	b.WriteString(quote(fmt.Sprint(a.Value.Any())))
}

func (h *Handler) levelTag(l slog.Level) string {
	name := fmt.Sprintf("%-5s", levelName(l))
	switch {
	case l >= slog.LevelError:
		name = h.paint(color.FgRed, name)
	case l >= slog.LevelWarn:
		name = h.paint(color.FgYellow, name)
	case l >= slog.LevelInfo:
		name = h.paint(color.FgGreen, name)
	default:
		name = h.paint(color.FgMagenta, name)
	}
	return "[" + name + "]"
}

func (h *Handler) paint(attr color.Attribute, s string) string {
	if !h.color {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func levelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return l.String()
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// redact masks secrets by key name, token-looking values, and credentials
// embedded in repository URLs.
func redact(a slog.Attr) any {
	value := a.Value.Resolve().Any()

	if doctor.ShouldMask(a.Key) {
		return doctor.MaskValue(fmt.Sprint(value))
	}
	strVal, ok := value.(string)
	if !ok {
		return value
	}
	if doctor.ContainsTokenPrefix(strVal) {
		return doctor.MaskValue(strVal)
	}
	return doctor.MaskURL(strVal)
}
