// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"
	"time"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func TestResolvePublication(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name        string
		status      string
		publishDate *time.Time
		want        string
		wantErr     bool
	}{
		{"empty defaults to draft", "", nil, model.StatusDraft, false},
		{"draft passes", model.StatusDraft, nil, model.StatusDraft, false},
		{"published passes", model.StatusPublished, nil, model.StatusPublished, false},
		{"archived passes", model.StatusArchived, nil, model.StatusArchived, false},
		{"scheduled with future date stays scheduled", model.StatusScheduled, &future, model.StatusScheduled, false},
		{"scheduled with past date publishes now", model.StatusScheduled, &past, model.StatusPublished, false},
		{"scheduled without date rejected", model.StatusScheduled, nil, "", true},
		{"unknown status rejected", "live", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := resolvePublication(tt.status, tt.publishDate, now)
			if tt.wantErr {
				if !apperr.IsKind(err, apperr.KindBadRequest) {
					t.Errorf("resolvePublication() error = %v, want BadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolvePublication() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("resolvePublication() status = %q, want %q", got, tt.want)
			}
		})
	}
}
