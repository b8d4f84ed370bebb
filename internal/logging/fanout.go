package logging

import (
	"context"
	"errors"
	"log/slog"
)

// sink is one destination of a fanout with its own minimum level.
type sink struct {
	handler slog.Handler
	level   slog.Level
}

// fanout writes each record to every sink whose level admits it. A failing
// sink does not stop the others.
type fanout []sink

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f {
		if level >= s.level && s.handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f {
		if r.Level < s.level || !s.handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, s := range f {
		out[i] = sink{handler: fn(s.handler), level: s.level}
	}
	return out
}
