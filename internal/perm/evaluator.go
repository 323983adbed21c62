// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package perm implements the permission evaluator and the identity
// resolver. Every mutating request goes through CheckPermission before
// any document is touched; the evaluator fails closed, reporting every
// internal failure as access denied.
package perm

import (
	"context"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/cache"
	"github.com/nimbuswork/storeadmin-go/internal/model"
)

// UserSource loads user documents for permission evaluation.
type UserSource interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error)
}

// RoleSource loads role documents for permission evaluation.
type RoleSource interface {
	GetRole(ctx context.Context, id primitive.ObjectID) (*model.Role, error)
}

// Evaluator decides whether a user may perform an action on a module.
type Evaluator struct {
	users  UserSource
	roles  RoleSource
	grants *cache.PermissionCache
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(users UserSource, roles RoleSource, grants *cache.PermissionCache, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{users: users, roles: roles, grants: grants, logger: logger}
}

// CheckPermission reports whether the user may perform action on
// module.
//
// The check fails closed: any internal error (user missing, role
// missing, storage failure) is reported as Forbidden, never as an
// allow. A nil error with false means the role simply does not grant
// the action.
func (e *Evaluator) CheckPermission(ctx context.Context, userID primitive.ObjectID, module string, action model.Action) (bool, error) {
	allowed, err := e.evaluate(ctx, userID, module, action)
	if err != nil {
		e.logger.Warn("permission check failed",
			"user_id", userID.Hex(),
			"module", module,
			"action", int(action),
			"error", err,
		)
		return false, apperr.Forbidden("Access denied")
	}
	return allowed, nil
}

// Require is CheckPermission folded into a single error: nil when
// allowed, Forbidden otherwise.
func (e *Evaluator) Require(ctx context.Context, userID primitive.ObjectID, module string, action model.Action) error {
	allowed, err := e.CheckPermission(ctx, userID, module, action)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.Forbidden("Permission denied")
	}
	return nil
}

func (e *Evaluator) evaluate(ctx context.Context, userID primitive.ObjectID, module string, action model.Action) (bool, error) {
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	// Admins bypass all permission checks.
	if user.IsAdmin {
		return true, nil
	}

	if !user.HasRole() {
		return false, apperr.Forbidden("Invalid role configuration")
	}

	grant, err := e.roleGrant(ctx, *user.Role)
	if err != nil {
		return false, err
	}

	// Customers may always open tickets, regardless of the permission
	// entries on their role.
	if isCustomerRoleName(grant.Name) && module == model.ModuleTickets && action == model.ActionCreate {
		return true, nil
	}

	return grant.Allows(module, action), nil
}

// roleGrant loads a role's grant through the permission cache.
func (e *Evaluator) roleGrant(ctx context.Context, roleID primitive.ObjectID) (*cache.RoleGrant, error) {
	if grant, ok := e.grants.Get(ctx, roleID); ok {
		return grant, nil
	}

	role, err := e.roles.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	grant := &cache.RoleGrant{Name: role.Name, Permissions: role.Permissions}
	e.grants.Set(ctx, roleID, grant)
	return grant, nil
}

// isCustomerRoleName mirrors the historical substring match: any role
// whose name contains "customer" classifies as a customer role.
func isCustomerRoleName(name string) bool {
	return strings.Contains(strings.ToLower(name), "customer")
}
