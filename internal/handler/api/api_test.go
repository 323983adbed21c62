// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
)

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, []string{"a", "b"}, &Meta{Total: 2})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Meta == nil || resp.Meta.Total != 2 {
		t.Errorf("meta = %+v, want total 2", resp.Meta)
	}
}

func TestWriteAppError(t *testing.T) {
	h := &Handler{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", apperr.NotFound("Role not found"), http.StatusNotFound, "Role not found"},
		{"forbidden", apperr.Forbidden("Permission denied"), http.StatusForbidden, "Permission denied"},
		{"conflict", apperr.Conflict("Role name already exists"), http.StatusConflict, "Role name already exists"},
		{"bad request", apperr.BadRequest("Invalid slug"), http.StatusBadRequest, "Invalid slug"},
		// Internal causes are never leaked to the client.
		{"internal", errors.New("mongo: broken pipe"), http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
			h.writeAppError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Error.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.wantMsg)
			}
		})
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","bogus":1}`))

	var body struct {
		Name string `json:"name"`
	}
	err := decode(req, &body)
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("decode error = %v, want bad request", err)
	}
}

func TestOptionalID(t *testing.T) {
	id := primitive.NewObjectID()

	got, err := optionalID(id.Hex())
	if err != nil {
		t.Fatalf("optionalID(%q) error: %v", id.Hex(), err)
	}
	if got == nil || *got != id {
		t.Errorf("optionalID(%q) = %v, want %s", id.Hex(), got, id.Hex())
	}

	got, err = optionalID("")
	if err != nil || got != nil {
		t.Errorf("optionalID(\"\") = %v, %v, want nil, nil", got, err)
	}

	if _, err := optionalID("not-hex"); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("optionalID(not-hex) error = %v, want bad request", err)
	}
}

func TestOptionalLimit(t *testing.T) {
	if got := optionalLimit(nil); got != nil {
		t.Errorf("optionalLimit(nil) = %v, want nil", got)
	}

	zero := 0
	got := optionalLimit(&zero)
	if got == nil || *got != nil {
		t.Errorf("optionalLimit(0) should clear the limit, got %v", got)
	}

	five := 5
	got = optionalLimit(&five)
	if got == nil || *got == nil || **got != 5 {
		t.Errorf("optionalLimit(5) = %v, want 5", got)
	}
}

func TestOptionalTime(t *testing.T) {
	got, err := optionalTime("")
	if err != nil || got != nil {
		t.Errorf("optionalTime(\"\") = %v, %v, want nil, nil", got, err)
	}

	got, err = optionalTime("2026-01-02T15:04:05Z")
	if err != nil {
		t.Fatalf("optionalTime error: %v", err)
	}
	if got == nil || got.Year() != 2026 {
		t.Errorf("optionalTime = %v, want 2026 timestamp", got)
	}

	if _, err := optionalTime("yesterday"); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("optionalTime(yesterday) error = %v, want bad request", err)
	}
}
