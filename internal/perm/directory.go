// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package perm

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// Directory is the MongoDB-backed UserSource and RoleSource.
type Directory struct {
	store *store.Store
}

// NewDirectory creates a Directory over the given store.
func NewDirectory(s *store.Store) *Directory {
	return &Directory{store: s}
}

// GetUser loads a user document by id.
func (d *Directory) GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var user model.User
	err := d.store.Collection(store.ColUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", id.Hex(), err)
	}
	return &user, nil
}

// GetRole loads a role document by id.
func (d *Directory) GetRole(ctx context.Context, id primitive.ObjectID) (*model.Role, error) {
	var role model.Role
	err := d.store.Collection(store.ColRoles).FindOne(ctx, bson.M{"_id": id}).Decode(&role)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Role not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading role %s: %w", id.Hex(), err)
	}
	return &role, nil
}
