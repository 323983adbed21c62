// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/model"
)

// permissionKeyPrefix namespaces role permission entries in the
// underlying cache.
const permissionKeyPrefix = "perm:role:"

// RoleGrant is the cached view of a role used by permission checks:
// the role name (for the customer classification rule) and its
// permission set.
type RoleGrant struct {
	Name        string                   `json:"name"`
	Permissions []model.ModulePermission `json:"permissions"`
}

// Allows reports whether the grant permits action on module.
func (g *RoleGrant) Allows(module string, action model.Action) bool {
	for _, p := range g.Permissions {
		if p.Module == module && p.Allows(action) {
			return true
		}
	}
	return false
}

// PermissionCache caches role grants keyed by role id.
//
// Entries must be invalidated synchronously whenever a role changes
// (update or delete), otherwise permission checks would serve stale
// authorization data until the TTL expires.
type PermissionCache struct {
	typed *TypedCache[RoleGrant]
}

// NewPermissionCache creates a permission cache on top of the given
// backend.
func NewPermissionCache(backend Cacher, ttl time.Duration) *PermissionCache {
	return &PermissionCache{
		typed: NewTypedCache[RoleGrant](backend, ttl),
	}
}

// Get returns the cached grant for a role, or (nil, false) on a miss.
func (c *PermissionCache) Get(ctx context.Context, roleID primitive.ObjectID) (*RoleGrant, bool) {
	return c.typed.Get(ctx, permissionKeyPrefix+roleID.Hex())
}

// Set stores the grant for a role.
// Best effort: a failed cache write only costs a later re-read.
func (c *PermissionCache) Set(ctx context.Context, roleID primitive.ObjectID, grant *RoleGrant) {
	_ = c.typed.Set(ctx, permissionKeyPrefix+roleID.Hex(), grant)
}

// Invalidate drops the cached grant for a role. Called from the role
// update and delete paths before their write is acknowledged.
func (c *PermissionCache) Invalidate(ctx context.Context, roleID primitive.ObjectID) {
	_ = c.typed.Delete(ctx, permissionKeyPrefix+roleID.Hex())
}
