// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nimbuswork/storeadmin-go/internal/auth"
	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// defaultRoles are created on first startup when seeding is enabled.
// The customer role carries only the implicit ticket-creation grant;
// the support role gets read access across the content modules.
var defaultRoles = []model.Role{
	{
		Name:        "customer",
		Description: "Storefront customers",
		Status:      true,
		Permissions: []model.ModulePermission{},
	},
	{
		Name:        "support",
		Description: "Support staff",
		Status:      true,
		Permissions: []model.ModulePermission{
			{Module: model.ModuleTickets, Actions: []model.Action{model.ActionCreate, model.ActionRead, model.ActionUpdate}},
			{Module: model.ModuleOrders, Actions: []model.Action{model.ActionRead}},
			{Module: model.ModuleProducts, Actions: []model.Action{model.ActionRead}},
			{Module: model.ModuleUsers, Actions: []model.Action{model.ActionRead}},
		},
	},
	{
		Name:        "editor",
		Description: "Content editors",
		Status:      true,
		Permissions: []model.ModulePermission{
			{Module: model.ModuleBlogs, Actions: []model.Action{model.ActionCreate, model.ActionRead, model.ActionUpdate, model.ActionDelete}},
			{Module: model.ModuleCaseStudies, Actions: []model.Action{model.ActionCreate, model.ActionRead, model.ActionUpdate, model.ActionDelete}},
			{Module: model.ModuleServices, Actions: []model.Action{model.ActionCreate, model.ActionRead, model.ActionUpdate, model.ActionDelete}},
		},
	},
}

// Seed creates the default roles and, when credentials are configured
// and no admin exists yet, the initial admin account. It is idempotent
// and safe to run on every startup.
func Seed(ctx context.Context, s *store.Store, adminEmail, adminPassword string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, role := range defaultRoles {
		now := time.Now()
		role.ID = primitive.NewObjectID()
		role.Users = []primitive.ObjectID{}
		role.CreatedAt = now
		role.UpdatedAt = now

		_, err := s.Collection(store.ColRoles).InsertOne(ctx, role)
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding role %s: %w", role.Name, err)
		}
		logger.Info("seeded default role", "name", role.Name)
	}

	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	err := s.Collection(store.ColUsers).FindOne(ctx, bson.M{"isAdmin": true}).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("checking for existing admin: %w", err)
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	now := time.Now()
	admin := &model.User{
		ID:           primitive.NewObjectID(),
		Name:         "Administrator",
		Email:        adminEmail,
		PasswordHash: hash,
		IsAdmin:      true,
		Status:       "active",
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.Collection(store.ColUsers).InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("seeding admin account: %w", err)
	}

	logger.Info("seeded initial admin account", "email", adminEmail)
	return nil
}
