// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package perm

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/cache"
	"github.com/nimbuswork/storeadmin-go/internal/model"
)

type fakeUsers struct {
	users map[primitive.ObjectID]*model.User
	err   error
}

func (f *fakeUsers) GetUser(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User not found")
}

type fakeRoles struct {
	roles map[primitive.ObjectID]*model.Role
	calls int
	err   error
}

func (f *fakeRoles) GetRole(_ context.Context, id primitive.ObjectID) (*model.Role, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.roles[id]; ok {
		return r, nil
	}
	return nil, apperr.NotFound("Role not found")
}

func newTestEvaluator(users *fakeUsers, roles *fakeRoles) *Evaluator {
	backend := cache.NewSimpleMemoryCache(time.Minute)
	grants := cache.NewPermissionCache(backend, time.Minute)
	return NewEvaluator(users, roles, grants, nil)
}

func TestAdminBypassesAllChecks(t *testing.T) {
	adminID := primitive.NewObjectID()
	users := &fakeUsers{users: map[primitive.ObjectID]*model.User{
		adminID: {ID: adminID, IsAdmin: true},
	}}
	e := newTestEvaluator(users, &fakeRoles{})

	allowed, err := e.CheckPermission(context.Background(), adminID, model.ModuleTickets, model.ActionDelete)
	if err != nil {
		t.Fatalf("CheckPermission() error = %v", err)
	}
	if !allowed {
		t.Error("admin with no role should be allowed everything")
	}
}

func TestCustomerMayAlwaysOpenTickets(t *testing.T) {
	roleID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	users := &fakeUsers{users: map[primitive.ObjectID]*model.User{
		userID: {ID: userID, Role: &roleID},
	}}
	roles := &fakeRoles{roles: map[primitive.ObjectID]*model.Role{
		roleID: {ID: roleID, Name: "customer"},
	}}
	e := newTestEvaluator(users, roles)
	ctx := context.Background()

	allowed, err := e.CheckPermission(ctx, userID, model.ModuleTickets, model.ActionCreate)
	if err != nil {
		t.Fatalf("CheckPermission(create) error = %v", err)
	}
	if !allowed {
		t.Error("customer should be allowed to create tickets")
	}

	allowed, err = e.CheckPermission(ctx, userID, model.ModuleTickets, model.ActionUpdate)
	if err != nil {
		t.Fatalf("CheckPermission(update) error = %v", err)
	}
	if allowed {
		t.Error("customer with empty permissions must not update tickets")
	}
}

func TestRolePermissionsDecide(t *testing.T) {
	roleID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	users := &fakeUsers{users: map[primitive.ObjectID]*model.User{
		userID: {ID: userID, Role: &roleID},
	}}
	roles := &fakeRoles{roles: map[primitive.ObjectID]*model.Role{
		roleID: {ID: roleID, Name: "editor", Permissions: []model.ModulePermission{
			{Module: model.ModuleBlogs, Actions: []model.Action{model.ActionCreate, model.ActionUpdate}},
		}},
	}}
	e := newTestEvaluator(users, roles)
	ctx := context.Background()

	if allowed, _ := e.CheckPermission(ctx, userID, model.ModuleBlogs, model.ActionUpdate); !allowed {
		t.Error("editor should update blogs")
	}
	if allowed, _ := e.CheckPermission(ctx, userID, model.ModuleBlogs, model.ActionDelete); allowed {
		t.Error("editor should not delete blogs")
	}
	if allowed, _ := e.CheckPermission(ctx, userID, model.ModuleProducts, model.ActionCreate); allowed {
		t.Error("editor should have no product permissions")
	}
}

func TestFailClosedOnMissingUser(t *testing.T) {
	e := newTestEvaluator(&fakeUsers{}, &fakeRoles{})

	allowed, err := e.CheckPermission(context.Background(), primitive.NewObjectID(), model.ModuleRoles, model.ActionRead)
	if allowed {
		t.Error("missing user must never be allowed")
	}
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("error = %v, want Forbidden", err)
	}
}

func TestFailClosedOnStorageError(t *testing.T) {
	roleID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	users := &fakeUsers{users: map[primitive.ObjectID]*model.User{
		userID: {ID: userID, Role: &roleID},
	}}
	roles := &fakeRoles{err: errors.New("connection reset")}
	e := newTestEvaluator(users, roles)

	allowed, err := e.CheckPermission(context.Background(), userID, model.ModuleRoles, model.ActionRead)
	if allowed {
		t.Error("storage failure must never be reported as allow")
	}
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("error = %v, want Forbidden", err)
	}
}

func TestFailClosedOnUserWithoutRole(t *testing.T) {
	userID := primitive.NewObjectID()
	users := &fakeUsers{users: map[primitive.ObjectID]*model.User{
		userID: {ID: userID},
	}}
	e := newTestEvaluator(users, &fakeRoles{})

	allowed, err := e.CheckPermission(context.Background(), userID, model.ModuleTickets, model.ActionCreate)
	if allowed {
		t.Error("user without role must be denied")
	}
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("error = %v, want Forbidden", err)
	}
}

func TestGrantsAreCachedPerRole(t *testing.T) {
	roleID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	users := &fakeUsers{users: map[primitive.ObjectID]*model.User{
		userID: {ID: userID, Role: &roleID},
	}}
	roles := &fakeRoles{roles: map[primitive.ObjectID]*model.Role{
		roleID: {ID: roleID, Name: "editor", Permissions: []model.ModulePermission{
			{Module: model.ModuleBlogs, Actions: []model.Action{model.ActionRead}},
		}},
	}}
	e := newTestEvaluator(users, roles)
	ctx := context.Background()

	_, _ = e.CheckPermission(ctx, userID, model.ModuleBlogs, model.ActionRead)
	_, _ = e.CheckPermission(ctx, userID, model.ModuleBlogs, model.ActionRead)

	if roles.calls != 1 {
		t.Errorf("role loaded %d times, want 1 (cached)", roles.calls)
	}
}

func TestRoleTypeClassification(t *testing.T) {
	adminID := primitive.NewObjectID()
	customerRole := primitive.NewObjectID()
	customerID := primitive.NewObjectID()
	supportRole := primitive.NewObjectID()
	supportID := primitive.NewObjectID()
	noRoleID := primitive.NewObjectID()

	users := &fakeUsers{users: map[primitive.ObjectID]*model.User{
		adminID:    {ID: adminID, IsAdmin: true},
		customerID: {ID: customerID, Role: &customerRole},
		supportID:  {ID: supportID, Role: &supportRole},
		noRoleID:   {ID: noRoleID},
	}}
	roles := &fakeRoles{roles: map[primitive.ObjectID]*model.Role{
		customerRole: {ID: customerRole, Name: "Premium Customer"},
		supportRole:  {ID: supportRole, Name: "editor"},
	}}
	e := newTestEvaluator(users, roles)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID primitive.ObjectID
		want   model.RoleType
	}{
		{"admin flag wins", adminID, model.RoleTypeAdmin},
		{"customer substring match", customerID, model.RoleTypeCustomer},
		{"other role is support", supportID, model.RoleTypeSupport},
		{"no role is support", noRoleID, model.RoleTypeSupport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.RoleType(ctx, tt.userID)
			if err != nil {
				t.Fatalf("RoleType() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RoleType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoleTypeMissingUser(t *testing.T) {
	e := newTestEvaluator(&fakeUsers{}, &fakeRoles{})

	if _, err := e.RoleType(context.Background(), primitive.NewObjectID()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("RoleType() error = %v, want NotFound", err)
	}
}
