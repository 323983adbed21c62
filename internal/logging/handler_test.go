// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func TestSlogLevelToEventLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, model.EventLevelInfo},
		{slog.LevelInfo, model.EventLevelInfo},
		{slog.LevelWarn, model.EventLevelWarning},
		{slog.LevelError, model.EventLevelError},
		{slog.LevelError + 4, model.EventLevelError},
	}
	for _, tt := range tests {
		if got := slogLevelToEventLevel(tt.level); got != tt.want {
			t.Errorf("slogLevelToEventLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestExtractSource(t *testing.T) {
	r := slog.NewRecord(time.Now(), slog.LevelWarn, "cache degraded", 0)
	r.AddAttrs(slog.String("source", "cache"))
	if got := extractSource(r); got != "cache" {
		t.Errorf("extractSource() = %q, want %q", got, "cache")
	}

	r = slog.NewRecord(time.Now(), slog.LevelWarn, "scheduler tick skipped", 0)
	if got := extractSource(r); got != "scheduler" {
		t.Errorf("extractSource() fallback = %q, want first message token", got)
	}
}

func TestExtractData(t *testing.T) {
	r := slog.NewRecord(time.Now(), slog.LevelWarn, "permission check failed", 0)
	r.AddAttrs(
		slog.String("source", "perm"),
		slog.String("module", "blogs"),
		slog.Int("action", 1),
	)

	data := extractData(r)
	if _, ok := data["source"]; ok {
		t.Error("source attribute should not be duplicated into data")
	}
	if data["module"] != "blogs" {
		t.Errorf("data[module] = %q", data["module"])
	}
	if data["action"] != "1" {
		t.Errorf("data[action] = %q", data["action"])
	}

	empty := slog.NewRecord(time.Now(), slog.LevelWarn, "bare", 0)
	if got := extractData(empty); got != nil {
		t.Errorf("extractData(no attrs) = %v, want nil", got)
	}
}

func TestHandlerForwardsToInner(t *testing.T) {
	var got []slog.Record
	inner := &captureHandler{records: &got}
	h := NewEventLogHandler(inner, nil)

	logger := slog.New(h)
	logger.Info("below threshold, inner only")

	if len(got) != 1 {
		t.Fatalf("inner handler saw %d records, want 1", len(got))
	}
	if got[0].Message != "below threshold, inner only" {
		t.Errorf("message = %q", got[0].Message)
	}
}

type captureHandler struct {
	records *[]slog.Record
}

func (c *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (c *captureHandler) Handle(_ context.Context, r slog.Record) error {
	*c.records = append(*c.records, r)
	return nil
}

func (c *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *captureHandler) WithGroup(string) slog.Handler      { return c }
