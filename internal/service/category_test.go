// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func TestConflictFieldAttribution(t *testing.T) {
	tests := []struct {
		name     string
		existing model.Category
		newName  string
		newSlug  string
		want     string
	}{
		{"name collision", model.Category{Name: "Guides", Slug: "other"}, "guides", "guides", "name"},
		{"slug collision", model.Category{Name: "Other", Slug: "guides"}, "Guides", "guides", "slug"},
		{"both collide prefers name", model.Category{Name: "Guides", Slug: "guides"}, "Guides", "guides", "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := conflictField(tt.existing, tt.newName, tt.newSlug); got != tt.want {
				t.Errorf("conflictField() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentConflictFieldAttribution(t *testing.T) {
	tests := []struct {
		name         string
		nameField    string
		existingName string
		existingSlug string
		newName      string
		newSlug      string
		want         string
	}{
		{"title collision", "title", "Summer Sale", "other", "summer sale", "summer-sale", "title"},
		{"name collision", "name", "Widget", "other", "WIDGET", "widget", "name"},
		{"slug collision", "title", "Other", "summer-sale", "Summer Sale", "summer-sale", "slug"},
		{"both collide prefers title", "title", "Summer Sale", "summer-sale", "Summer Sale", "summer-sale", "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contentConflictField(tt.nameField, tt.existingName, tt.existingSlug, tt.newName, tt.newSlug)
			if got != tt.want {
				t.Errorf("contentConflictField() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSameParent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	if !sameParent(nil, nil) {
		t.Error("two nil parents should match")
	}
	if sameParent(&a, nil) || sameParent(nil, &a) {
		t.Error("nil and non-nil should not match")
	}
	if !sameParent(&a, &a) {
		t.Error("identical ids should match")
	}
	if sameParent(&a, &b) {
		t.Error("different ids should not match")
	}
}
