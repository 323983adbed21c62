// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"bad request", BadRequest("nope"), http.StatusBadRequest},
		{"forbidden", Forbidden("denied"), http.StatusForbidden},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"conflict", Conflict("duplicate"), http.StatusConflict},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInternalPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	if !errors.Is(err, cause) {
		t.Error("Internal() should wrap the original error")
	}
	if err.Error() != "internal error: connection reset" {
		t.Errorf("Error() = %q, want cause message preserved", err.Error())
	}
}

func TestInternalDoesNotDowngradeDomainErrors(t *testing.T) {
	orig := NotFound("Role not found")
	err := Internal(fmt.Errorf("loading role: %w", orig))

	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want KindNotFound", err.Kind)
	}
	if err.Message != "Role not found" {
		t.Errorf("Message = %q, want original message", err.Message)
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	err := From(errors.New("driver failure"))
	if err.Kind != KindInternal {
		t.Errorf("Kind = %v, want KindInternal", err.Kind)
	}

	domain := From(Forbidden("Access denied"))
	if domain.Kind != KindForbidden {
		t.Errorf("Kind = %v, want KindForbidden", domain.Kind)
	}
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Conflict("Role name already exists"))
	if !IsKind(wrapped, KindConflict) {
		t.Error("IsKind should see through wrapping")
	}
	if IsKind(errors.New("plain"), KindConflict) {
		t.Error("IsKind should be false for non-domain errors")
	}
}
