package logging

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/trace"
)

// Keys stamped on every record logged inside an active span.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"
)

// ReplaceFunc rewrites an attribute before it reaches any sink.
type ReplaceFunc func(groups []string, a slog.Attr) slog.Attr

// Handler fans each record out to every sink. Attributes pass through
// replace first, so redaction also covers sinks without a ReplaceAttr hook
// such as the pretty console handler. Records logged with a context that
// carries a span get its trace and span ids.
type Handler struct {
	sinks   []slog.Handler
	replace ReplaceFunc
	groups  []string
}

// NewHandler creates a handler over sinks. A nil replace keeps attributes as is.
func NewHandler(replace ReplaceFunc, sinks ...slog.Handler) *Handler {
	return &Handler{sinks: sinks, replace: replace}
}

// Enabled reports whether any sink handles records at level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range h.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// Handle rewrites the record's attributes and passes it to each enabled sink.
// It returns the first sink error.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.rewrite(h.groups, a))
		return true
	})

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out.AddAttrs(
			slog.String(KeyTraceID, sc.TraceID().String()),
			slog.String(KeySpanID, sc.SpanID().String()),
		)
	}

	var firstErr error

	for _, sink := range h.sinks {
		if !sink.Enabled(ctx, out.Level) {
			continue
		}

		if err := sink.Handle(ctx, out.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// WithAttrs rewrites attrs once and binds them to every sink.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewrite(h.groups, a)
	}

	sinks := make([]slog.Handler, len(h.sinks))
	for i, sink := range h.sinks {
		sinks[i] = sink.WithAttrs(rewritten)
	}

	return &Handler{sinks: sinks, replace: h.replace, groups: h.groups}
}

// WithGroup opens a group on every sink.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	sinks := make([]slog.Handler, len(h.sinks))
	for i, sink := range h.sinks {
		sinks[i] = sink.WithGroup(name)
	}

	return &Handler{sinks: sinks, replace: h.replace, groups: append(slices.Clip(h.groups), name)}
}

// rewrite applies replace to a, descending into groups the way slog's own
// ReplaceAttr does.
func (h *Handler) rewrite(groups []string, a slog.Attr) slog.Attr {
	if h.replace == nil {
		return a
	}

	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		inner := append(slices.Clip(groups), a.Key)

		out := make([]slog.Attr, len(members))
		for i, m := range members {
			out[i] = h.rewrite(inner, m)
		}

		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	return h.replace(groups, a)
}
