// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is a permission action code. The set is closed; code 4 is
// only used by the tickets module ("create for others").
type Action int

// Action codes.
const (
	ActionCreate          Action = 0
	ActionRead            Action = 1
	ActionUpdate          Action = 2
	ActionDelete          Action = 3
	ActionCreateForOthers Action = 4
)

// Known permission modules.
const (
	ModuleBlogs       = "blogs"
	ModuleCaseStudies = "case-studies"
	ModuleServices    = "services"
	ModuleProducts    = "products"
	ModuleCoupons     = "coupons"
	ModuleOrders      = "orders"
	ModuleTickets     = "tickets"
	ModuleRoles       = "roles"
	ModuleUsers       = "users"
)

// ModulePermission grants a set of action codes on one module.
type ModulePermission struct {
	Module  string   `bson:"module" json:"module"`
	Actions []Action `bson:"permissions" json:"permissions"`
}

// Allows reports whether the entry grants the given action.
func (p ModulePermission) Allows(action Action) bool {
	for _, a := range p.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Role is a named permission set. Name is unique case-insensitively
// (strength-2 collation index) and stored lowercased. Users is a
// denormalized back-reference: it must always equal the set of users
// whose role field points at this role.
type Role struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Status      bool                 `bson:"status" json:"status"`
	Permissions []ModulePermission   `bson:"permissions" json:"permissions"`
	Users       []primitive.ObjectID `bson:"users" json:"users"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Allows reports whether the role grants action on module.
func (r *Role) Allows(module string, action Action) bool {
	for _, p := range r.Permissions {
		if p.Module == module && p.Allows(action) {
			return true
		}
	}
	return false
}
