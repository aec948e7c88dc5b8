package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/moxforge/shellpack/internal/errors"
)

// Options configures the process logger built by Setup.
type Options struct {
	// Verbosity is the count of -v flags.
	Verbosity int
	// Format selects the stderr handler format.
	Format Format
	// Stderr receives mirrored records. Defaults to os.Stderr.
	Stderr io.Writer
	// LogFiles are appended to in JSON format at debug level.
	LogFiles []string
}

// Setup builds the process logger: a stderr handler gated by verbosity plus
// one JSON handler per log file. The returned function closes the files.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := LevelFromVerbosity(opts.Verbosity)
	hopts := &slog.HandlerOptions{Level: level, ReplaceAttr: redactAttr}

	var primary slog.Handler
	switch opts.Format {
	case FormatJSON:
		primary = slog.NewJSONHandler(stderr, hopts)
	default:
		primary = NewHandler(stderr, &slog.HandlerOptions{Level: level})
	}

	handlers := []slog.Handler{primary}
	var files []*os.File
	closeAll := func() error {
		var firstErr error
		for _, f := range files {
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, path := range opts.LogFiles {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			_ = closeAll()
			return nil, nil, errors.Wrapf(err, "creating log directory for %s", path)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			_ = closeAll()
			return nil, nil, errors.Wrapf(err, "opening log file %s", path)
		}
		files = append(files, f)
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level:       slog.LevelDebug,
			ReplaceAttr: redactAttr,
		}))
	}

	if len(handlers) == 1 {
		return slog.New(primary), closeAll, nil
	}
	return slog.New(fanout(handlers)), closeAll, nil
}

// fanout sends each record to every handler that accepts its level. A
// failing log file does not stop the others.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			err = errors.CombineErrors(err, h.Handle(ctx, r.Clone()))
		}
	}
	return err
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) derive(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// redactAttr applies the console handler's masking to JSON output.
func redactAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.LevelKey:
			if lvl, ok := a.Value.Any().(slog.Level); ok {
				return slog.String(slog.LevelKey, levelName(lvl))
			}
			return a
		case slog.TimeKey, slog.MessageKey, slog.SourceKey:
			return a
		}
	}
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	return slog.Any(a.Key, redact(a))
}
