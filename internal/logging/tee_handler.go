package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler forwards each record to every sink whose level accepts it.
type teeHandler struct {
	sinks []slog.Handler
}

func newTeeHandler(sinks ...slog.Handler) slog.Handler {
	var kept []slog.Handler
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if _, noop := sink.(NoopHandler); noop {
			continue
		}
		kept = append(kept, sink)
	}
	switch len(kept) {
	case 0:
		return NoopHandler{}
	case 1:
		return kept[0]
	}
	return &teeHandler{sinks: kept}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range h.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, sink := range h.sinks {
		if !sink.Enabled(ctx, record.Level) {
			continue
		}
		// Handlers may retain attrs, so each sink gets its own copy.
		if err := sink.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(sink slog.Handler) slog.Handler { return sink.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(sink slog.Handler) slog.Handler { return sink.WithGroup(name) })
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	sinks := make([]slog.Handler, 0, len(h.sinks))
	for _, sink := range h.sinks {
		sinks = append(sinks, fn(sink))
	}
	return &teeHandler{sinks: sinks}
}

// TeeLogger returns a logger that writes to base and every extra handler.
// The console logger keeps its own level while a file sink may differ.
func TeeLogger(base *slog.Logger, extra ...slog.Handler) *slog.Logger {
	sinks := extra
	if base != nil {
		sinks = append([]slog.Handler{base.Handler()}, extra...)
	}
	return slog.New(newTeeHandler(sinks...))
}
