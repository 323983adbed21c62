// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func TestPermissionCacheRoundTrip(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	pc := NewPermissionCache(backend, time.Minute)
	ctx := context.Background()

	roleID := primitive.NewObjectID()
	grant := &RoleGrant{
		Name: "editor",
		Permissions: []model.ModulePermission{
			{Module: model.ModuleTickets, Actions: []model.Action{model.ActionCreate, model.ActionRead}},
		},
	}

	if _, ok := pc.Get(ctx, roleID); ok {
		t.Fatal("Get() before Set should miss")
	}

	pc.Set(ctx, roleID, grant)

	got, ok := pc.Get(ctx, roleID)
	if !ok {
		t.Fatal("Get() after Set should hit")
	}
	if got.Name != "editor" {
		t.Errorf("Name = %q, want %q", got.Name, "editor")
	}
	if !got.Allows(model.ModuleTickets, model.ActionCreate) {
		t.Error("grant should allow tickets create")
	}
	if got.Allows(model.ModuleTickets, model.ActionDelete) {
		t.Error("grant should not allow tickets delete")
	}
}

func TestPermissionCacheInvalidate(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	pc := NewPermissionCache(backend, time.Minute)
	ctx := context.Background()

	roleID := primitive.NewObjectID()
	pc.Set(ctx, roleID, &RoleGrant{Name: "editor"})

	pc.Invalidate(ctx, roleID)

	if _, ok := pc.Get(ctx, roleID); ok {
		t.Error("Get() after Invalidate should miss")
	}
}

func TestPermissionCacheKeysAreScopedPerRole(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	pc := NewPermissionCache(backend, time.Minute)
	ctx := context.Background()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	pc.Set(ctx, a, &RoleGrant{Name: "keeper"})
	pc.Invalidate(ctx, b)

	if _, ok := pc.Get(ctx, a); !ok {
		t.Error("invalidating one role must not evict another")
	}
}
