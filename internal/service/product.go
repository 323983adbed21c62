// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/perm"
	"github.com/nimbuswork/storeadmin-go/internal/store"
	"github.com/nimbuswork/storeadmin-go/internal/util"
)

// ProductService manages products: CRUD, duplication and the
// category/sub-category back-references.
type ProductService struct {
	store      *store.Store
	perms      *perm.Evaluator
	categories *CategoryService
	logger     *slog.Logger
}

// NewProductService creates a ProductService. categories must be bound
// to the product category tree.
func NewProductService(s *store.Store, perms *perm.Evaluator, categories *CategoryService, logger *slog.Logger) *ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{store: s, perms: perms, categories: categories, logger: logger}
}

// ProductInput is the payload for Create and, with nil meaning
// untouched, the patch for Update.
type ProductInput struct {
	Name        *string
	Slug        *string
	Description *string
	Price       *float64
	Stock       *int
	Images      *[]string
	Status      *string
	Category    **primitive.ObjectID
	SubCategory *[]primitive.ObjectID
}

// Create inserts a product and registers it in the items list of its
// category and every sub-category.
func (s *ProductService) Create(ctx context.Context, actorID primitive.ObjectID, in ProductInput) (*model.Product, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleProducts, model.ActionCreate); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.BadRequest("Product name is required")
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, apperr.BadRequest("Product price cannot be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return nil, apperr.BadRequest("Product stock cannot be negative")
	}

	name := strings.TrimSpace(*in.Name)
	slug := util.SlugFrom(deref(in.Slug), name)
	if !util.IsValidSlug(slug) {
		return nil, apperr.BadRequest("Invalid slug")
	}
	if err := checkContentNameAndSlug(ctx, s.store.Collection(store.ColProducts), "Product", "name", name, slug, primitive.NilObjectID); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &model.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Slug:        slug,
		Description: deref(in.Description),
		Status:      model.StatusDraft,
		Images:      derefSlice(in.Images),
		CreatedBy:   actorID,
		UpdatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.Status != nil {
		if !validProductStatus(*in.Status) {
			return nil, apperr.BadRequest("Invalid status")
		}
		product.Status = *in.Status
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.SubCategory != nil {
		product.SubCategory = *in.SubCategory
	}

	if err := s.checkSubCategories(ctx, product.Category, product.SubCategory); err != nil {
		return nil, err
	}

	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.store.Collection(store.ColProducts).InsertOne(sessCtx, product); err != nil {
			return err
		}
		return s.linkCategories(sessCtx, product.ID, product.Category, product.SubCategory)
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Product slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("creating product %s: %w", slug, err))
	}

	return product, nil
}

// Get loads a product by id.
func (s *ProductService) Get(ctx context.Context, actorID, productID primitive.ObjectID) (*model.Product, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleProducts, model.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, productID)
}

// List returns products, newest first, optionally filtered by status
// or category.
func (s *ProductService) List(ctx context.Context, actorID primitive.ObjectID, status string, categoryID *primitive.ObjectID) ([]model.Product, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleProducts, model.ActionRead); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if categoryID != nil {
		filter["category"] = *categoryID
	}

	cursor, err := s.store.Collection(store.ColProducts).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing products: %w", err))
	}

	var products []model.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding products: %w", err))
	}
	return products, nil
}

// Update patches a product. Category or sub-category changes re-link
// the product's items back-references in the same transaction.
func (s *ProductService) Update(ctx context.Context, actorID, productID primitive.ObjectID, in ProductInput) (*model.Product, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleProducts, model.ActionUpdate); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, productID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now(), "updatedBy": actorID}
	name := current.Name
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.BadRequest("Product name is required")
		}
		name = strings.TrimSpace(*in.Name)
		set["name"] = name
	}
	slug := current.Slug
	if in.Slug != nil {
		slug = util.SlugFrom(*in.Slug, name)
		if !util.IsValidSlug(slug) {
			return nil, apperr.BadRequest("Invalid slug")
		}
		set["slug"] = slug
	}
	if in.Name != nil || in.Slug != nil {
		if err := checkContentNameAndSlug(ctx, s.store.Collection(store.ColProducts), "Product", "name", name, slug, productID); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, apperr.BadRequest("Product price cannot be negative")
		}
		set["price"] = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, apperr.BadRequest("Product stock cannot be negative")
		}
		set["stock"] = *in.Stock
	}
	if in.Images != nil {
		set["images"] = *in.Images
	}
	if in.Status != nil {
		if !validProductStatus(*in.Status) {
			return nil, apperr.BadRequest("Invalid status")
		}
		set["status"] = *in.Status
	}

	category := current.Category
	subCategory := current.SubCategory
	relink := false
	if in.Category != nil && !sameParent(current.Category, *in.Category) {
		category = *in.Category
		set["category"] = category
		relink = true
	}
	if in.SubCategory != nil && !sameIDSet(current.SubCategory, *in.SubCategory) {
		subCategory = *in.SubCategory
		set["subCategory"] = subCategory
		relink = true
	}

	if relink {
		if err := s.checkSubCategories(ctx, category, subCategory); err != nil {
			return nil, err
		}
	}

	var updated model.Product
	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := s.store.Collection(store.ColProducts).FindOneAndUpdate(sessCtx,
			bson.M{"_id": productID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Product not found")
		}
		if err != nil {
			return err
		}

		if relink {
			if err := s.unlinkCategories(sessCtx, productID, current.Category, current.SubCategory); err != nil {
				return err
			}
			return s.linkCategories(sessCtx, productID, category, subCategory)
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Product slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("updating product %s: %w", productID.Hex(), err))
	}

	return &updated, nil
}

// Delete removes a product and every category back-reference to it.
func (s *ProductService) Delete(ctx context.Context, actorID, productID primitive.ObjectID) error {
	if err := s.perms.Require(ctx, actorID, model.ModuleProducts, model.ActionDelete); err != nil {
		return err
	}

	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var deleted model.Product
		err := s.store.Collection(store.ColProducts).FindOneAndDelete(sessCtx,
			bson.M{"_id": productID}).Decode(&deleted)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Product not found")
		}
		if err != nil {
			return fmt.Errorf("deleting product: %w", err)
		}
		return s.unlinkCategories(sessCtx, productID, deleted.Category, deleted.SubCategory)
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("deleting product %s: %w", productID.Hex(), err))
	}
	return nil
}

// Duplicate copies a product under a probed unique name and slug.
func (s *ProductService) Duplicate(ctx context.Context, actorID, productID primitive.ObjectID) (*model.Product, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleProducts, model.ActionCreate); err != nil {
		return nil, err
	}

	original, err := s.get(ctx, productID)
	if err != nil {
		return nil, err
	}

	name, err := nextCopyName(original.Name, func(candidate string) (bool, error) {
		count, err := s.store.Collection(store.ColProducts).CountDocuments(ctx, bson.M{"name": ciExact(candidate)})
		if err != nil {
			return false, fmt.Errorf("checking product name: %w", err)
		}
		return count > 0, nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now()
	copy := &model.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Slug:        util.Slugify(name),
		Description: original.Description,
		Price:       original.Price,
		Stock:       original.Stock,
		Images:      original.Images,
		Status:      model.StatusDraft,
		Category:    original.Category,
		SubCategory: original.SubCategory,
		CreatedBy:   actorID,
		UpdatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.store.Collection(store.ColProducts).InsertOne(sessCtx, copy); err != nil {
			return err
		}
		return s.linkCategories(sessCtx, copy.ID, copy.Category, copy.SubCategory)
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Product name conflict occurred")
		}
		return nil, apperr.Internal(fmt.Errorf("duplicating product: %w", err))
	}

	return copy, nil
}

// AdjustStock changes stock by delta, rejecting adjustments that would
// take it below zero.
func (s *ProductService) AdjustStock(ctx context.Context, productID primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": productID}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	result, err := s.store.Collection(store.ColProducts).UpdateOne(ctx, filter,
		bson.M{
			"$inc": bson.M{"stock": delta},
			"$set": bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return apperr.Internal(fmt.Errorf("adjusting stock: %w", err))
	}
	if result.MatchedCount == 0 {
		if delta < 0 {
			return apperr.Conflict("Insufficient stock")
		}
		return apperr.NotFound("Product not found")
	}
	return nil
}

func (s *ProductService) get(ctx context.Context, productID primitive.ObjectID) (*model.Product, error) {
	var product model.Product
	err := s.store.Collection(store.ColProducts).FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading product: %w", err))
	}
	return &product, nil
}

// checkSubCategories verifies every sub-category exists and is a child
// of the product's category.
func (s *ProductService) checkSubCategories(ctx context.Context, category *primitive.ObjectID, subs []primitive.ObjectID) error {
	if len(subs) == 0 {
		return nil
	}
	if category == nil {
		return apperr.BadRequest("Sub-categories require a category")
	}

	cursor, err := s.store.Collection(store.ColProductCategories).Find(ctx,
		bson.M{"_id": bson.M{"$in": subs}})
	if err != nil {
		return apperr.Internal(fmt.Errorf("loading sub-categories: %w", err))
	}

	var found []model.Category
	if err := cursor.All(ctx, &found); err != nil {
		return apperr.Internal(fmt.Errorf("decoding sub-categories: %w", err))
	}
	if len(found) != len(dedupeIDs(subs)) {
		return apperr.NotFound("Sub-category not found")
	}

	return validateSubCategoryParents(*category, found)
}

// validateSubCategoryParents rejects any candidate sub-category whose
// parent is not the product's category.
func validateSubCategoryParents(category primitive.ObjectID, subs []model.Category) error {
	for _, sub := range subs {
		if !sub.HasParent() || *sub.ParentCategory != category {
			return apperr.BadRequest("category must be a parent of at least one subcategory")
		}
	}
	return nil
}

func (s *ProductService) linkCategories(ctx context.Context, productID primitive.ObjectID, category *primitive.ObjectID, subs []primitive.ObjectID) error {
	if category != nil {
		if err := s.categories.AttachItem(ctx, *category, productID); err != nil {
			return err
		}
	}
	for _, sub := range subs {
		if err := s.categories.AttachItem(ctx, sub, productID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductService) unlinkCategories(ctx context.Context, productID primitive.ObjectID, category *primitive.ObjectID, subs []primitive.ObjectID) error {
	if category != nil {
		if err := s.categories.DetachItem(ctx, *category, productID); err != nil {
			return err
		}
	}
	for _, sub := range subs {
		if err := s.categories.DetachItem(ctx, sub, productID); err != nil {
			return err
		}
	}
	return nil
}

func validProductStatus(status string) bool {
	switch status {
	case model.StatusDraft, model.StatusPublished, model.StatusArchived:
		return true
	}
	return false
}

func sameIDSet(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[primitive.ObjectID]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			return false
		}
	}
	return true
}

func dedupeIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
