// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package perm

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/model"
)

// RoleType classifies a user as admin, customer or support. It drives
// default-assignment and default-visibility rules; it is not a
// permission check.
//
// Classification: the admin flag wins; otherwise a role name
// containing "customer" (case-insensitive) means customer; everything
// else, including users without a role, is support.
func (e *Evaluator) RoleType(ctx context.Context, userID primitive.ObjectID) (model.RoleType, error) {
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.IsAdmin {
		return model.RoleTypeAdmin, nil
	}

	if user.HasRole() {
		grant, err := e.roleGrant(ctx, *user.Role)
		if err != nil {
			return "", err
		}
		if isCustomerRoleName(grant.Name) {
			return model.RoleTypeCustomer, nil
		}
	}

	return model.RoleTypeSupport, nil
}
