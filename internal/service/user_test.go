// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestBuildUserUpdateProfileFields(t *testing.T) {
	set, err := buildUserUpdate(UpdateUserInput{
		Name:     strPtr("  Ada Lovelace  "),
		UserName: strPtr("ada"),
		Contact:  strPtr("+44 20 7946 0958"),
	}, true, model.RoleTypeCustomer)
	if err != nil {
		t.Fatalf("buildUserUpdate() error = %v", err)
	}
	if set["name"] != "Ada Lovelace" {
		t.Errorf("name = %q, want trimmed", set["name"])
	}
	if set["userName"] != "ada" {
		t.Errorf("userName = %q", set["userName"])
	}
	if _, ok := set["updatedAt"]; !ok {
		t.Error("updatedAt missing from $set")
	}
}

func TestBuildUserUpdateStaffOnlyFields(t *testing.T) {
	t.Run("self email change denied", func(t *testing.T) {
		_, err := buildUserUpdate(UpdateUserInput{Email: strPtr("new@example.com")}, true, model.RoleTypeCustomer)
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("error = %v, want Forbidden", err)
		}
	})

	t.Run("admin email change allowed", func(t *testing.T) {
		set, err := buildUserUpdate(UpdateUserInput{Email: strPtr("New@Example.COM")}, false, model.RoleTypeAdmin)
		if err != nil {
			t.Fatalf("buildUserUpdate() error = %v", err)
		}
		if set["email"] != "new@example.com" {
			t.Errorf("email = %q, want lowercased", set["email"])
		}
	})

	t.Run("customer cannot change status", func(t *testing.T) {
		_, err := buildUserUpdate(UpdateUserInput{Status: strPtr("disabled")}, true, model.RoleTypeCustomer)
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("error = %v, want Forbidden", err)
		}
	})

	t.Run("support changes status of others", func(t *testing.T) {
		set, err := buildUserUpdate(UpdateUserInput{Status: strPtr("disabled")}, false, model.RoleTypeSupport)
		if err != nil {
			t.Fatalf("buildUserUpdate() error = %v", err)
		}
		if set["status"] != "disabled" {
			t.Errorf("status = %q", set["status"])
		}
	})

	t.Run("admin flag is admin-only", func(t *testing.T) {
		_, err := buildUserUpdate(UpdateUserInput{IsAdmin: boolPtr(true)}, false, model.RoleTypeSupport)
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("error = %v, want Forbidden", err)
		}
		set, err := buildUserUpdate(UpdateUserInput{IsAdmin: boolPtr(true)}, false, model.RoleTypeAdmin)
		if err != nil {
			t.Fatalf("buildUserUpdate() error = %v", err)
		}
		if set["isAdmin"] != true {
			t.Error("isAdmin not set by admin")
		}
	})
}

func TestBuildUserUpdateValidation(t *testing.T) {
	if _, err := buildUserUpdate(UpdateUserInput{Name: strPtr("   ")}, true, model.RoleTypeAdmin); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("blank name: error = %v, want BadRequest", err)
	}
	if _, err := buildUserUpdate(UpdateUserInput{Password: strPtr("short")}, true, model.RoleTypeAdmin); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("short password: error = %v, want BadRequest", err)
	}
}
