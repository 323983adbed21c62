// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func TestValidateSubCategoryParents(t *testing.T) {
	category := primitive.NewObjectID()
	other := primitive.NewObjectID()

	childOf := func(parent primitive.ObjectID, name string) model.Category {
		return model.Category{ID: primitive.NewObjectID(), Name: name, ParentCategory: &parent}
	}

	if err := validateSubCategoryParents(category, []model.Category{
		childOf(category, "laptops"),
		childOf(category, "desktops"),
	}); err != nil {
		t.Errorf("valid sub-categories rejected: %v", err)
	}

	err := validateSubCategoryParents(category, []model.Category{
		childOf(category, "laptops"),
		childOf(other, "cables"),
	})
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("foreign sub-category: error = %v, want BadRequest", err)
	}
	if want := "category must be a parent of at least one subcategory"; err.Error() != want {
		t.Errorf("foreign sub-category message = %q, want %q", err.Error(), want)
	}

	err = validateSubCategoryParents(category, []model.Category{
		{ID: primitive.NewObjectID(), Name: "rootless"},
	})
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("parentless sub-category: error = %v, want BadRequest", err)
	}
}

func TestSameIDSet(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	if !sameIDSet([]primitive.ObjectID{a, b}, []primitive.ObjectID{b, a}) {
		t.Error("order should not matter")
	}
	if sameIDSet([]primitive.ObjectID{a, b}, []primitive.ObjectID{a, c}) {
		t.Error("different members should not match")
	}
	if sameIDSet([]primitive.ObjectID{a}, []primitive.ObjectID{a, b}) {
		t.Error("different lengths should not match")
	}
	if !sameIDSet(nil, nil) {
		t.Error("two empty sets should match")
	}
}

func TestDedupeIDs(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	got := dedupeIDs([]primitive.ObjectID{a, b, a, b, a})
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("dedupeIDs() = %v, want [a b] preserving first occurrence order", got)
	}
}
