// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the business logic layer: roles, users,
// categories, content items, tickets, coupons, carts and orders. The
// relationship-consistency protocols that keep denormalized
// back-references in sync live here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/cache"
	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/perm"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// maxCopyProbes bounds the " - Copy N" name search when duplicating a
// role. Unbounded probing could spin forever on pathological data.
const maxCopyProbes = 1000

// RoleService manages roles and the role/user back-reference.
type RoleService struct {
	store  *store.Store
	perms  *perm.Evaluator
	grants *cache.PermissionCache
	logger *slog.Logger
}

// NewRoleService creates a RoleService.
func NewRoleService(s *store.Store, perms *perm.Evaluator, grants *cache.PermissionCache, logger *slog.Logger) *RoleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleService{store: s, perms: perms, grants: grants, logger: logger}
}

// CreateRoleInput is the payload for Create.
type CreateRoleInput struct {
	Name        string
	Description string
	Status      *bool
	Permissions []model.ModulePermission
}

// UpdateRoleInput is the patch for Update; nil fields are untouched.
type UpdateRoleInput struct {
	Name        *string
	Description *string
	Status      *bool
	Permissions *[]model.ModulePermission
}

// Create inserts a new role. Names are stored lowercased; uniqueness
// is enforced case-insensitively by the collation index.
func (s *RoleService) Create(ctx context.Context, actorID primitive.ObjectID, in CreateRoleInput) (*model.Role, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleRoles, model.ActionCreate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.BadRequest("Role name is required")
	}

	now := time.Now()
	role := &model.Role{
		ID:          primitive.NewObjectID(),
		Name:        strings.ToLower(strings.TrimSpace(in.Name)),
		Description: in.Description,
		Status:      true,
		Permissions: in.Permissions,
		Users:       []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != nil {
		role.Status = *in.Status
	}
	if role.Permissions == nil {
		role.Permissions = []model.ModulePermission{}
	}

	if _, err := s.store.Collection(store.ColRoles).InsertOne(ctx, role); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Role name already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("creating role: %w", err))
	}

	return role, nil
}

// Get loads a role by id.
func (s *RoleService) Get(ctx context.Context, actorID, roleID primitive.ObjectID) (*model.Role, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleRoles, model.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, roleID)
}

// List returns all roles.
func (s *RoleService) List(ctx context.Context, actorID primitive.ObjectID) ([]model.Role, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleRoles, model.ActionRead); err != nil {
		return nil, err
	}

	cursor, err := s.store.Collection(store.ColRoles).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing roles: %w", err))
	}

	var roles []model.Role
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding roles: %w", err))
	}
	return roles, nil
}

// Update patches a role. The permission cache entry for the role is
// invalidated synchronously so no check can serve the old permission
// set after the update is acknowledged.
func (s *RoleService) Update(ctx context.Context, actorID, roleID primitive.ObjectID, in UpdateRoleInput) (*model.Role, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleRoles, model.ActionUpdate); err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now()}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.BadRequest("Role name is required")
		}
		set["name"] = strings.ToLower(strings.TrimSpace(*in.Name))
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Status != nil {
		set["status"] = *in.Status
	}
	if in.Permissions != nil {
		set["permissions"] = *in.Permissions
	}

	var updated model.Role
	err := s.store.Collection(store.ColRoles).FindOneAndUpdate(ctx,
		bson.M{"_id": roleID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Role not found")
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Role name already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("updating role: %w", err))
	}

	s.grants.Invalidate(ctx, roleID)

	return &updated, nil
}

// Delete removes a role and nulls the role reference of every user
// that pointed at it, atomically. A role must never be deleted while
// users still silently point at a ghost id, so both halves run in one
// transaction and roll back together.
func (s *RoleService) Delete(ctx context.Context, actorID, roleID primitive.ObjectID) (*model.Role, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleRoles, model.ActionDelete); err != nil {
		return nil, err
	}

	var deleted model.Role
	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := s.store.Collection(store.ColRoles).FindOneAndDelete(sessCtx, bson.M{"_id": roleID}).Decode(&deleted)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Role not found")
		}
		if err != nil {
			return fmt.Errorf("deleting role: %w", err)
		}

		if _, err := s.store.Collection(store.ColUsers).UpdateMany(sessCtx,
			bson.M{"role": roleID},
			bson.M{"$set": bson.M{"role": nil}},
		); err != nil {
			return fmt.Errorf("detaching users from role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.grants.Invalidate(ctx, roleID)

	return &deleted, nil
}

// Duplicate copies a role under a probed unique name: "name - Copy",
// then "name - Copy 1", "name - Copy 2", and so on.
func (s *RoleService) Duplicate(ctx context.Context, actorID, roleID primitive.ObjectID) (*model.Role, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleRoles, model.ActionCreate); err != nil {
		return nil, err
	}

	original, err := s.get(ctx, roleID)
	if err != nil {
		return nil, err
	}

	name, err := nextCopyName(original.Name, func(candidate string) (bool, error) {
		return s.nameExists(ctx, candidate)
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now()
	copy := &model.Role{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: original.Description,
		Status:      original.Status,
		Permissions: original.Permissions,
		Users:       []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.store.Collection(store.ColRoles).InsertOne(ctx, copy); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent writer claimed the probed name between the
			// check and the insert.
			return nil, apperr.Conflict("Role name conflict occurred")
		}
		return nil, apperr.Internal(fmt.Errorf("duplicating role: %w", err))
	}

	return copy, nil
}

// AttachUser adds a user to a role's users back-reference.
func (s *RoleService) AttachUser(ctx context.Context, roleID, userID primitive.ObjectID) error {
	_, err := s.store.Collection(store.ColRoles).UpdateOne(ctx,
		bson.M{"_id": roleID},
		bson.M{"$addToSet": bson.M{"users": userID}})
	if err != nil {
		return fmt.Errorf("attaching user to role: %w", err)
	}
	return nil
}

// DetachUser removes a user from a role's users back-reference.
func (s *RoleService) DetachUser(ctx context.Context, roleID, userID primitive.ObjectID) error {
	_, err := s.store.Collection(store.ColRoles).UpdateOne(ctx,
		bson.M{"_id": roleID},
		bson.M{"$pull": bson.M{"users": userID}})
	if err != nil {
		return fmt.Errorf("detaching user from role: %w", err)
	}
	return nil
}

// FindByName looks a role up by its case-insensitive name.
func (s *RoleService) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := s.store.Collection(store.ColRoles).FindOne(ctx,
		bson.M{"name": ciExact(name)}).Decode(&role)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Role not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("finding role by name: %w", err))
	}
	return &role, nil
}

func (s *RoleService) get(ctx context.Context, roleID primitive.ObjectID) (*model.Role, error) {
	var role model.Role
	err := s.store.Collection(store.ColRoles).FindOne(ctx, bson.M{"_id": roleID}).Decode(&role)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Role not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading role: %w", err))
	}
	return &role, nil
}

func (s *RoleService) nameExists(ctx context.Context, name string) (bool, error) {
	count, err := s.store.Collection(store.ColRoles).CountDocuments(ctx, bson.M{"name": ciExact(name)})
	if err != nil {
		return false, fmt.Errorf("checking role name: %w", err)
	}
	return count > 0, nil
}

// nextCopyName probes "base - Copy", "base - Copy 1", ... until an
// unused name is found, up to maxCopyProbes attempts.
func nextCopyName(base string, exists func(string) (bool, error)) (string, error) {
	candidate := base + " - Copy"
	for i := 0; i < maxCopyProbes; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s - Copy %d", base, i+1)
	}
	return "", fmt.Errorf("no free copy name for %q after %d attempts", base, maxCopyProbes)
}

// ciExact builds a case-insensitive exact-match regex filter.
func ciExact(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
}
