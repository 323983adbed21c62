// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a custom slog handler that integrates with
// the event log. It forwards logs at WARN level and above to the
// database-backed event log for auditing.
package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// EventLogHandler is a slog.Handler that wraps another handler and
// also writes WARN and ERROR level records to the event log
// collection.
type EventLogHandler struct {
	inner slog.Handler
	store *store.Store
	level slog.Level
}

// NewEventLogHandler creates an EventLogHandler that wraps the given
// handler. Records at WARN level and above are written to both the
// wrapped handler and the event log.
func NewEventLogHandler(inner slog.Handler, s *store.Store) *EventLogHandler {
	return &EventLogHandler{inner: inner, store: s, level: slog.LevelWarn}
}

// NewEventLogHandlerWithLevel creates an EventLogHandler with a custom
// minimum forwarding level.
func NewEventLogHandlerWithLevel(inner slog.Handler, s *store.Store, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, store: s, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), store: h.store, level: h.level}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), store: h.store, level: h.level}
}

// writeToEventLog persists a record as an event document. A background
// context with a short timeout is used so the event lands even when
// the request context is already cancelled.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	event := model.Event{
		Level:     slogLevelToEventLevel(r.Level),
		Source:    extractSource(r),
		Message:   r.Message,
		Data:      extractData(r),
		CreatedAt: r.Time,
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = h.store.Collection(store.ColEvents).InsertOne(ctx, event)
}

// slogLevelToEventLevel converts a slog.Level to an event log level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// extractSource looks for a "source" attribute, falling back to the
// first token of the message.
func extractSource(r slog.Record) string {
	var source string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "source" {
			source = a.Value.String()
			return false
		}
		return true
	})
	if source != "" {
		return source
	}
	if fields := strings.Fields(r.Message); len(fields) > 0 {
		return fields[0]
	}
	return "app"
}

// extractData flattens the record attributes into the event data map.
func extractData(r slog.Record) map[string]string {
	data := make(map[string]string)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "source" {
			data[a.Key] = a.Value.String()
		}
		return true
	})
	if len(data) == 0 {
		return nil
	}
	return data
}
