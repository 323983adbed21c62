// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// Reconciler is the periodic back-reference repair sweep. Transactions
// keep the denormalized links consistent in the normal path; the sweep
// catches drift from manual edits and historical data by rebuilding
// every back-reference array from the forward references.
type Reconciler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(s *store.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: s, logger: logger}
}

// Run rebuilds role/user and category/item back-references. It
// returns the number of documents repaired.
func (r *Reconciler) Run(ctx context.Context) (int64, error) {
	var repaired int64

	n, err := r.reconcileRoleUsers(ctx)
	if err != nil {
		return repaired, err
	}
	repaired += n

	for _, kind := range []CategoryKind{BlogCategories, ProductCategories, CaseStudyCategories} {
		n, err := r.reconcileCategoryItems(ctx, kind)
		if err != nil {
			return repaired, err
		}
		repaired += n
	}

	if repaired > 0 {
		r.logger.Info("reconciliation sweep repaired back-references", "repaired", repaired)
	}
	return repaired, nil
}

// reconcileRoleUsers rebuilds each role's users array from the role
// field on user documents.
func (r *Reconciler) reconcileRoleUsers(ctx context.Context) (int64, error) {
	cursor, err := r.store.Collection(store.ColRoles).Find(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("listing roles for reconciliation: %w", err)
	}

	var roles []model.Role
	if err := cursor.All(ctx, &roles); err != nil {
		return 0, fmt.Errorf("decoding roles for reconciliation: %w", err)
	}

	var repaired int64
	for _, role := range roles {
		actual, err := r.referencingIDs(ctx, store.ColUsers, bson.M{"role": role.ID})
		if err != nil {
			return repaired, err
		}
		if sameIDSet(role.Users, actual) {
			continue
		}

		if _, err := r.store.Collection(store.ColRoles).UpdateOne(ctx,
			bson.M{"_id": role.ID},
			bson.M{"$set": bson.M{"users": actual}},
		); err != nil {
			return repaired, fmt.Errorf("repairing role %s users: %w", role.ID.Hex(), err)
		}
		repaired++
		r.logger.Warn("repaired role users back-reference",
			"role_id", role.ID.Hex(),
			"stored", len(role.Users),
			"actual", len(actual),
		)
	}
	return repaired, nil
}

// reconcileCategoryItems rebuilds each category's items array from the
// forward references on its item collection.
func (r *Reconciler) reconcileCategoryItems(ctx context.Context, kind CategoryKind) (int64, error) {
	cursor, err := r.store.Collection(kind.Collection).Find(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("listing %s for reconciliation: %w", kind.Collection, err)
	}

	var categories []model.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return 0, fmt.Errorf("decoding %s for reconciliation: %w", kind.Collection, err)
	}

	var repaired int64
	for _, category := range categories {
		filter := bson.M{kind.ItemField: category.ID}
		if kind.ItemArrayField != "" {
			filter = bson.M{"$or": bson.A{
				bson.M{kind.ItemField: category.ID},
				bson.M{kind.ItemArrayField: category.ID},
			}}
		}

		actualItems, err := r.referencingIDs(ctx, kind.ItemCollection, filter)
		if err != nil {
			return repaired, err
		}
		actualSubs, err := r.referencingIDs(ctx, kind.Collection, bson.M{"parentCategory": category.ID})
		if err != nil {
			return repaired, err
		}

		set := bson.M{}
		if !sameIDSet(category.Items, actualItems) {
			set["items"] = actualItems
		}
		if !sameIDSet(category.SubCategories, actualSubs) {
			set["subCategories"] = actualSubs
		}
		if len(set) == 0 {
			continue
		}

		if _, err := r.store.Collection(kind.Collection).UpdateOne(ctx,
			bson.M{"_id": category.ID},
			bson.M{"$set": set},
		); err != nil {
			return repaired, fmt.Errorf("repairing category %s back-references: %w", category.ID.Hex(), err)
		}
		repaired++
		r.logger.Warn("repaired category back-references",
			"collection", kind.Collection,
			"category_id", category.ID.Hex(),
			"items", len(actualItems),
			"subcategories", len(actualSubs),
		)
	}
	return repaired, nil
}

// referencingIDs returns the ids of every document in collection
// matching filter.
func (r *Reconciler) referencingIDs(ctx context.Context, collection string, filter bson.M) ([]primitive.ObjectID, error) {
	cursor, err := r.store.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("querying %s references: %w", collection, err)
	}

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding %s references: %w", collection, err)
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}
