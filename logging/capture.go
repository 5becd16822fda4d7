package logging

import (
	"context"
	"log/slog"
)

// CaptureHandler wraps an slog.Handler, copying every record into a
// Collector under an activity name while passing it through unchanged.
type CaptureHandler struct {
	underlying slog.Handler
	collector  *Collector
	name       string
	attrs      []slog.Attr
}

// NewCaptureHandler creates a handler that captures records for the
// named activity into collector.
func NewCaptureHandler(underlying slog.Handler, collector *Collector, name string) *CaptureHandler {
	return &CaptureHandler{
		underlying: underlying,
		collector:  collector,
		name:       name,
	}
}

// CaptureLogger returns a logger whose records are captured for the
// named activity while still reaching base's handler.
func CaptureLogger(base *slog.Logger, collector *Collector, name string) *slog.Logger {
	return slog.New(NewCaptureHandler(base.Handler(), collector, name))
}

// Enabled always reports true so every level is captured; the underlying
// handler still applies its own level filter for output.
func (h *CaptureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle stores the record in the collector and forwards it.
func (h *CaptureHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := Entry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}
	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = flatten(attr.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = flatten(a.Value)
		return true
	})

	h.collector.Add(h.name, entry)
	return h.underlying.Handle(ctx, r)
}

// WithAttrs must return a CaptureHandler, not the underlying handler,
// so capture survives .With() chains.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &CaptureHandler{
		underlying: h.underlying.WithAttrs(attrs),
		collector:  h.collector,
		name:       h.name,
		attrs:      merged,
	}
}

// WithGroup forwards the group to the underlying handler; captured
// attributes stay flat.
func (h *CaptureHandler) WithGroup(name string) slog.Handler {
	return &CaptureHandler{
		underlying: h.underlying.WithGroup(name),
		collector:  h.collector,
		name:       h.name,
		attrs:      h.attrs,
	}
}

// flatten converts an slog.Value into a JSON-friendly value.
func flatten(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]any, len(attrs))
		for _, attr := range attrs {
			group[attr.Key] = flatten(attr.Value)
		}
		return group
	default:
		val := v.Any()
		if err, ok := val.(error); ok {
			return err.Error()
		}
		return val
	}
}
