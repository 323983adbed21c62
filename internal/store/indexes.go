// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the application depends on.
//
// The unique indexes are load-bearing, not advisory: the application
// checks name/slug collisions before writing, but that read-then-write
// has a race window, and the storage-level constraint is what actually
// guarantees uniqueness under concurrent writers.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	// Case-insensitive unique role names (strength 2 = ignore case).
	ci := &options.Collation{Locale: "en", Strength: 2}
	if err := s.createIndexes(ctx, ColRoles, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(ci),
		},
	}); err != nil {
		return err
	}

	if err := s.createIndexes(ctx, ColUsers, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "isAdmin", Value: 1}, {Key: "createdAt", Value: 1}}},
	}); err != nil {
		return err
	}

	// Unique slugs on every content and category collection.
	slugged := []string{
		ColBlogs, ColBlogCategories,
		ColProducts, ColProductCategories,
		ColCaseStudies, ColCaseStudyCategories,
		ColServices,
	}
	for _, col := range slugged {
		if err := s.createIndexes(ctx, col, []mongo.IndexModel{
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		}); err != nil {
			return err
		}
	}

	if err := s.createIndexes(ctx, ColTickets, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ticketId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		{Keys: bson.D{{Key: "customer", Value: 1}}},
	}); err != nil {
		return err
	}

	if err := s.createIndexes(ctx, ColCoupons, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}); err != nil {
		return err
	}

	if err := s.createIndexes(ctx, ColCarts, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "updatedAt", Value: 1}}},
	}); err != nil {
		return err
	}

	return s.createIndexes(ctx, ColOrders, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
}

func (s *Store) createIndexes(ctx context.Context, col string, models []mongo.IndexModel) error {
	if _, err := s.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("creating indexes on %s: %w", col, err)
	}
	return nil
}
