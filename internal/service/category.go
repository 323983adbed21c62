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

// maxCategoryDepth bounds the ancestor walk that rejects re-parenting
// cycles.
const maxCategoryDepth = 100

// CategoryKind binds a CategoryService instance to one category tree
// and the content collection whose documents reference it.
type CategoryKind struct {
	// Module is the permission module guarding the tree.
	Module string
	// Collection holds the category documents.
	Collection string
	// ItemCollection holds the content documents referencing the tree.
	ItemCollection string
	// ItemField is the single-reference field on content documents.
	ItemField string
	// ItemArrayField is an optional array-reference field (product
	// sub-categories); empty when the content type has none.
	ItemArrayField string
	// Label names the tree in user-facing messages.
	Label string
}

// The three category trees.
var (
	BlogCategories = CategoryKind{
		Module:         model.ModuleBlogs,
		Collection:     store.ColBlogCategories,
		ItemCollection: store.ColBlogs,
		ItemField:      "category",
		Label:          "Blog category",
	}
	ProductCategories = CategoryKind{
		Module:         model.ModuleProducts,
		Collection:     store.ColProductCategories,
		ItemCollection: store.ColProducts,
		ItemField:      "category",
		ItemArrayField: "subCategory",
		Label:          "Product category",
	}
	CaseStudyCategories = CategoryKind{
		Module:         model.ModuleCaseStudies,
		Collection:     store.ColCaseStudyCategories,
		ItemCollection: store.ColCaseStudies,
		ItemField:      "category",
		Label:          "Case study category",
	}
)

// CategoryService manages one category tree: the parent/sub-category
// double links and the category/item back-references.
type CategoryService struct {
	kind   CategoryKind
	store  *store.Store
	perms  *perm.Evaluator
	logger *slog.Logger
}

// NewCategoryService creates a CategoryService for the given tree.
func NewCategoryService(kind CategoryKind, s *store.Store, perms *perm.Evaluator, logger *slog.Logger) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{kind: kind, store: s, perms: perms, logger: logger}
}

// CreateCategoryInput is the payload for Create.
type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description string
	Status      *bool
	Parent      *primitive.ObjectID
}

// UpdateCategoryInput is the patch for Update; nil fields are
// untouched. Setting Parent to a pointer at NilObjectID detaches the
// category from its parent.
type UpdateCategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	Status      *bool
	Parent      **primitive.ObjectID
}

// Create inserts a category and registers it in its parent's
// sub-category list.
func (s *CategoryService) Create(ctx context.Context, actorID primitive.ObjectID, in CreateCategoryInput) (*model.Category, error) {
	if err := s.perms.Require(ctx, actorID, s.kind.Module, model.ActionCreate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.BadRequest(s.kind.Label + " name is required")
	}

	slug := util.SlugFrom(in.Slug, in.Name)
	if !util.IsValidSlug(slug) {
		return nil, apperr.BadRequest("Invalid slug")
	}

	if err := s.checkNameAndSlug(ctx, in.Name, slug, primitive.NilObjectID); err != nil {
		return nil, err
	}

	now := time.Now()
	category := &model.Category{
		ID:             primitive.NewObjectID(),
		Name:           strings.TrimSpace(in.Name),
		Slug:           slug,
		Description:    in.Description,
		Status:         true,
		ParentCategory: in.Parent,
		SubCategories:  []primitive.ObjectID{},
		Items:          []primitive.ObjectID{},
		CreatedBy:      actorID,
		UpdatedBy:      actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Status != nil {
		category.Status = *in.Status
	}

	if in.Parent != nil {
		if _, err := s.get(ctx, *in.Parent); err != nil {
			return nil, err
		}
	}

	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.store.Collection(s.kind.Collection).InsertOne(sessCtx, category); err != nil {
			return err
		}
		if in.Parent != nil {
			if _, err := s.store.Collection(s.kind.Collection).UpdateOne(sessCtx,
				bson.M{"_id": *in.Parent},
				bson.M{"$addToSet": bson.M{"subCategories": category.ID}},
			); err != nil {
				return fmt.Errorf("linking sub-category: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict(s.kind.Label + " slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("creating category: %w", err))
	}

	return category, nil
}

// Get loads a category by id.
func (s *CategoryService) Get(ctx context.Context, actorID, categoryID primitive.ObjectID) (*model.Category, error) {
	if err := s.perms.Require(ctx, actorID, s.kind.Module, model.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, categoryID)
}

// List returns all categories in the tree.
func (s *CategoryService) List(ctx context.Context, actorID primitive.ObjectID) ([]model.Category, error) {
	if err := s.perms.Require(ctx, actorID, s.kind.Module, model.ActionRead); err != nil {
		return nil, err
	}

	cursor, err := s.store.Collection(s.kind.Collection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing categories: %w", err))
	}

	var categories []model.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding categories: %w", err))
	}
	return categories, nil
}

// Update patches a category. A parent change re-links the category:
// pulled from the old parent's sub-category list, added to the new
// parent's, all in one transaction.
func (s *CategoryService) Update(ctx context.Context, actorID, categoryID primitive.ObjectID, in UpdateCategoryInput) (*model.Category, error) {
	if err := s.perms.Require(ctx, actorID, s.kind.Module, model.ActionUpdate); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now(), "updatedBy": actorID}
	name := current.Name
	slug := current.Slug
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.BadRequest(s.kind.Label + " name is required")
		}
		name = strings.TrimSpace(*in.Name)
		set["name"] = name
	}
	if in.Slug != nil {
		slug = util.SlugFrom(*in.Slug, name)
		if !util.IsValidSlug(slug) {
			return nil, apperr.BadRequest("Invalid slug")
		}
		set["slug"] = slug
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Status != nil {
		set["status"] = *in.Status
	}

	if in.Name != nil || in.Slug != nil {
		if err := s.checkNameAndSlug(ctx, name, slug, categoryID); err != nil {
			return nil, err
		}
	}

	var newParent *primitive.ObjectID
	reparent := false
	if in.Parent != nil {
		newParent = *in.Parent
		if newParent != nil && *newParent == primitive.NilObjectID {
			newParent = nil
		}
		reparent = !sameParent(current.ParentCategory, newParent)
	}

	if reparent && newParent != nil {
		if *newParent == categoryID {
			return nil, apperr.BadRequest("Category cannot be its own parent")
		}
		if err := s.checkNoCycle(ctx, categoryID, *newParent); err != nil {
			return nil, err
		}
		set["parentCategory"] = *newParent
	} else if reparent {
		set["parentCategory"] = nil
	}

	var updated model.Category
	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := s.store.Collection(s.kind.Collection).FindOneAndUpdate(sessCtx,
			bson.M{"_id": categoryID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound(s.kind.Label + " not found")
		}
		if err != nil {
			return err
		}

		if reparent {
			if current.HasParent() {
				if _, err := s.store.Collection(s.kind.Collection).UpdateOne(sessCtx,
					bson.M{"_id": *current.ParentCategory},
					bson.M{"$pull": bson.M{"subCategories": categoryID}},
				); err != nil {
					return fmt.Errorf("unlinking old parent: %w", err)
				}
			}
			if newParent != nil {
				if _, err := s.store.Collection(s.kind.Collection).UpdateOne(sessCtx,
					bson.M{"_id": *newParent},
					bson.M{"$addToSet": bson.M{"subCategories": categoryID}},
				); err != nil {
					return fmt.Errorf("linking new parent: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict(s.kind.Label + " slug already exists")
		}
		return nil, apperr.Internal(err)
	}

	return &updated, nil
}

// Delete removes a category. In one transaction: the category is
// deleted, its parent drops it from subCategories, its children lose
// their parent pointer, and every referencing item has the category
// reference cleared.
func (s *CategoryService) Delete(ctx context.Context, actorID, categoryID primitive.ObjectID) (*model.Category, error) {
	if err := s.perms.Require(ctx, actorID, s.kind.Module, model.ActionDelete); err != nil {
		return nil, err
	}

	var deleted model.Category
	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// Sub-categories must be deleted or re-parented first.
		err := s.store.Collection(s.kind.Collection).FindOneAndDelete(sessCtx,
			bson.M{"_id": categoryID, "subCategories.0": bson.M{"$exists": false}},
		).Decode(&deleted)
		if errors.Is(err, mongo.ErrNoDocuments) {
			exists, countErr := s.exists(sessCtx, categoryID)
			if countErr != nil {
				return countErr
			}
			if exists {
				return apperr.BadRequest(s.kind.Label + " has sub-categories")
			}
			return apperr.NotFound(s.kind.Label + " not found")
		}
		if err != nil {
			return fmt.Errorf("deleting category: %w", err)
		}

		if deleted.HasParent() {
			if _, err := s.store.Collection(s.kind.Collection).UpdateOne(sessCtx,
				bson.M{"_id": *deleted.ParentCategory},
				bson.M{"$pull": bson.M{"subCategories": categoryID}},
			); err != nil {
				return fmt.Errorf("unlinking parent: %w", err)
			}
		}

		// Backlink drift only: the subCategories guard above means no
		// child should reference us, but forward links are repaired
		// anyway so the reconciler never sees a dangling parent.
		if _, err := s.store.Collection(s.kind.Collection).UpdateMany(sessCtx,
			bson.M{"parentCategory": categoryID},
			bson.M{"$set": bson.M{"parentCategory": nil}},
		); err != nil {
			return fmt.Errorf("orphaning sub-categories: %w", err)
		}

		if _, err := s.store.Collection(s.kind.ItemCollection).UpdateMany(sessCtx,
			bson.M{s.kind.ItemField: categoryID},
			bson.M{"$set": bson.M{s.kind.ItemField: nil}},
		); err != nil {
			return fmt.Errorf("clearing item references: %w", err)
		}

		if s.kind.ItemArrayField != "" {
			if _, err := s.store.Collection(s.kind.ItemCollection).UpdateMany(sessCtx,
				bson.M{s.kind.ItemArrayField: categoryID},
				bson.M{"$pull": bson.M{s.kind.ItemArrayField: categoryID}},
			); err != nil {
				return fmt.Errorf("clearing item array references: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &deleted, nil
}

// AttachItem registers an item in the category's items back-reference.
// Callers run it inside the transaction that writes the item.
func (s *CategoryService) AttachItem(ctx context.Context, categoryID, itemID primitive.ObjectID) error {
	result, err := s.store.Collection(s.kind.Collection).UpdateOne(ctx,
		bson.M{"_id": categoryID},
		bson.M{"$addToSet": bson.M{"items": itemID}})
	if err != nil {
		return fmt.Errorf("attaching item to category: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound(s.kind.Label + " not found")
	}
	return nil
}

// DetachItem removes an item from the category's items back-reference.
func (s *CategoryService) DetachItem(ctx context.Context, categoryID, itemID primitive.ObjectID) error {
	_, err := s.store.Collection(s.kind.Collection).UpdateOne(ctx,
		bson.M{"_id": categoryID},
		bson.M{"$pull": bson.M{"items": itemID}})
	if err != nil {
		return fmt.Errorf("detaching item from category: %w", err)
	}
	return nil
}

// Kind exposes the service's tree binding.
func (s *CategoryService) Kind() CategoryKind { return s.kind }

func (s *CategoryService) exists(ctx context.Context, categoryID primitive.ObjectID) (bool, error) {
	count, err := s.store.Collection(s.kind.Collection).CountDocuments(ctx, bson.M{"_id": categoryID})
	if err != nil {
		return false, fmt.Errorf("checking category existence: %w", err)
	}
	return count > 0, nil
}

func (s *CategoryService) get(ctx context.Context, categoryID primitive.ObjectID) (*model.Category, error) {
	var category model.Category
	err := s.store.Collection(s.kind.Collection).FindOne(ctx, bson.M{"_id": categoryID}).Decode(&category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(s.kind.Label + " not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading category: %w", err))
	}
	return &category, nil
}

// checkNameAndSlug rejects a name or slug already used by another
// category in the same tree. The conflict message names the field that
// actually collided.
func (s *CategoryService) checkNameAndSlug(ctx context.Context, name, slug string, excludeID primitive.ObjectID) error {
	filter := bson.M{"$or": bson.A{
		bson.M{"name": ciExact(name)},
		bson.M{"slug": slug},
	}}
	if excludeID != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	var existing model.Category
	err := s.store.Collection(s.kind.Collection).FindOne(ctx, filter).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("checking category uniqueness: %w", err))
	}
	return apperr.Conflict(s.kind.Label + " " + conflictField(existing, name, slug) + " already exists")
}

// conflictField attributes a uniqueness conflict to the name or the
// slug, preferring name when both collide.
func conflictField(existing model.Category, name, slug string) string {
	if strings.EqualFold(existing.Name, name) {
		return "name"
	}
	if existing.Slug == slug {
		return "slug"
	}
	return "name"
}

// checkContentNameAndSlug rejects a name (or title) and slug pair
// already used by another document in the collection. The conflict
// message names the field that actually collided. Content items get
// the same pre-check protocol as categories; the unique slug index
// still backstops the insert race.
func checkContentNameAndSlug(ctx context.Context, col *mongo.Collection, label, nameField, name, slug string, excludeID primitive.ObjectID) error {
	filter := bson.M{"$or": bson.A{
		bson.M{nameField: ciExact(name)},
		bson.M{"slug": slug},
	}}
	if excludeID != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	var existing struct {
		Name  string `bson:"name"`
		Title string `bson:"title"`
		Slug  string `bson:"slug"`
	}
	err := col.FindOne(ctx, filter).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("checking %s uniqueness: %w", label, err))
	}

	existingName := existing.Name
	if nameField == "title" {
		existingName = existing.Title
	}
	field := contentConflictField(nameField, existingName, existing.Slug, name, slug)
	return apperr.Conflict(label + " " + field + " already exists")
}

// contentConflictField attributes a uniqueness conflict to the name
// field or the slug, preferring the name when both collide.
func contentConflictField(nameField, existingName, existingSlug, name, slug string) string {
	if strings.EqualFold(existingName, name) {
		return nameField
	}
	if existingSlug == slug {
		return "slug"
	}
	return nameField
}

// checkNoCycle walks the ancestor chain of the proposed parent and
// rejects the move if it would make the category its own ancestor.
func (s *CategoryService) checkNoCycle(ctx context.Context, categoryID, parentID primitive.ObjectID) error {
	cursor := parentID
	for i := 0; i < maxCategoryDepth; i++ {
		if cursor == categoryID {
			return apperr.BadRequest("Category cannot be moved under its own sub-category")
		}
		ancestor, err := s.get(ctx, cursor)
		if err != nil {
			return err
		}
		if !ancestor.HasParent() {
			return nil
		}
		cursor = *ancestor.ParentCategory
	}
	return apperr.BadRequest("Category tree is too deep")
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
