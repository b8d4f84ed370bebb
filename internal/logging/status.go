package logging

import (
	"context"
	"log/slog"
)

// EditStatus is where the editor stands when a record is written.
type EditStatus struct {
	State   string
	RouteID int
}

// StatusFunc reports the current edit status. It is called for every record,
// so it must not take locks the caller may already hold. ok is false while
// no store is open.
type StatusFunc func() (status EditStatus, ok bool)

func (s EditStatus) attr() slog.Attr {
	attrs := []slog.Attr{slog.String("state", s.State)}
	if s.RouteID != 0 {
		attrs = append(attrs, slog.Int("route", s.RouteID))
	}
	return slog.Attr{Key: "edit", Value: slog.GroupValue(attrs...)}
}

// statusHandler adds an "edit" group to every record.
type statusHandler struct {
	slog.Handler
	status StatusFunc
}

func (h statusHandler) Handle(ctx context.Context, r slog.Record) error {
	if st, ok := h.status(); ok {
		r.AddAttrs(st.attr())
	}
	return h.Handler.Handle(ctx, r)
}

func (h statusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return statusHandler{Handler: h.Handler.WithAttrs(attrs), status: h.status}
}

func (h statusHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return statusHandler{Handler: h.Handler.WithGroup(name), status: h.status}
}
