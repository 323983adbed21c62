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

	"github.com/microcosm-cc/bluemonday"
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

// CaseStudyService manages case studies with the same slug and
// category back-reference semantics as blogs.
type CaseStudyService struct {
	store      *store.Store
	perms      *perm.Evaluator
	categories *CategoryService
	sanitizer  *bluemonday.Policy
	logger     *slog.Logger
}

// NewCaseStudyService creates a CaseStudyService. categories must be
// bound to the case study category tree.
func NewCaseStudyService(s *store.Store, perms *perm.Evaluator, categories *CategoryService, logger *slog.Logger) *CaseStudyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaseStudyService{
		store:      s,
		perms:      perms,
		categories: categories,
		sanitizer:  bluemonday.UGCPolicy(),
		logger:     logger,
	}
}

// CaseStudyInput is the payload for Create and, with nil meaning
// untouched, the patch for Update.
type CaseStudyInput struct {
	Title    *string
	Slug     *string
	Body     *string
	Client   *string
	Image    *string
	Status   *string
	Category **primitive.ObjectID
}

// Create inserts a case study and registers it in its category's items
// list.
func (s *CaseStudyService) Create(ctx context.Context, actorID primitive.ObjectID, in CaseStudyInput) (*model.CaseStudy, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleCaseStudies, model.ActionCreate); err != nil {
		return nil, err
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.BadRequest("Case study title is required")
	}

	title := strings.TrimSpace(*in.Title)
	slug := util.SlugFrom(deref(in.Slug), title)
	if !util.IsValidSlug(slug) {
		return nil, apperr.BadRequest("Invalid slug")
	}
	if err := checkContentNameAndSlug(ctx, s.store.Collection(store.ColCaseStudies), "Case study", "title", title, slug, primitive.NilObjectID); err != nil {
		return nil, err
	}

	now := time.Now()
	study := &model.CaseStudy{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Slug:      slug,
		Body:      s.sanitizer.Sanitize(deref(in.Body)),
		Client:    deref(in.Client),
		Image:     deref(in.Image),
		Status:    model.StatusDraft,
		CreatedBy: actorID,
		UpdatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Status != nil {
		if !validProductStatus(*in.Status) {
			return nil, apperr.BadRequest("Invalid status")
		}
		study.Status = *in.Status
	}
	if in.Category != nil {
		study.Category = *in.Category
	}

	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.store.Collection(store.ColCaseStudies).InsertOne(sessCtx, study); err != nil {
			return err
		}
		if study.Category != nil {
			return s.categories.AttachItem(sessCtx, *study.Category, study.ID)
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Case study slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("creating case study %s: %w", slug, err))
	}

	return study, nil
}

// Get loads a case study by id.
func (s *CaseStudyService) Get(ctx context.Context, actorID, studyID primitive.ObjectID) (*model.CaseStudy, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleCaseStudies, model.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, studyID)
}

// List returns case studies, newest first, optionally filtered by
// status.
func (s *CaseStudyService) List(ctx context.Context, actorID primitive.ObjectID, status string) ([]model.CaseStudy, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleCaseStudies, model.ActionRead); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.store.Collection(store.ColCaseStudies).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing case studies: %w", err))
	}

	var studies []model.CaseStudy
	if err := cursor.All(ctx, &studies); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding case studies: %w", err))
	}
	return studies, nil
}

// Update patches a case study, re-linking the category back-reference
// on category change.
func (s *CaseStudyService) Update(ctx context.Context, actorID, studyID primitive.ObjectID, in CaseStudyInput) (*model.CaseStudy, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleCaseStudies, model.ActionUpdate); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, studyID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now(), "updatedBy": actorID}
	title := current.Title
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperr.BadRequest("Case study title is required")
		}
		title = strings.TrimSpace(*in.Title)
		set["title"] = title
	}
	slug := current.Slug
	if in.Slug != nil {
		slug = util.SlugFrom(*in.Slug, title)
		if !util.IsValidSlug(slug) {
			return nil, apperr.BadRequest("Invalid slug")
		}
		set["slug"] = slug
	}
	if in.Title != nil || in.Slug != nil {
		if err := checkContentNameAndSlug(ctx, s.store.Collection(store.ColCaseStudies), "Case study", "title", title, slug, studyID); err != nil {
			return nil, err
		}
	}
	if in.Body != nil {
		set["body"] = s.sanitizer.Sanitize(*in.Body)
	}
	if in.Client != nil {
		set["client"] = *in.Client
	}
	if in.Image != nil {
		set["image"] = *in.Image
	}
	if in.Status != nil {
		if !validProductStatus(*in.Status) {
			return nil, apperr.BadRequest("Invalid status")
		}
		set["status"] = *in.Status
	}

	var newCategory *primitive.ObjectID
	relink := false
	if in.Category != nil {
		newCategory = *in.Category
		relink = !sameParent(current.Category, newCategory)
		if relink {
			set["category"] = newCategory
		}
	}

	var updated model.CaseStudy
	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := s.store.Collection(store.ColCaseStudies).FindOneAndUpdate(sessCtx,
			bson.M{"_id": studyID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Case study not found")
		}
		if err != nil {
			return err
		}

		if relink {
			if current.Category != nil {
				if err := s.categories.DetachItem(sessCtx, *current.Category, studyID); err != nil {
					return err
				}
			}
			if newCategory != nil {
				if err := s.categories.AttachItem(sessCtx, *newCategory, studyID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Case study slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("updating case study %s: %w", studyID.Hex(), err))
	}

	return &updated, nil
}

// Delete removes a case study and its category back-reference.
func (s *CaseStudyService) Delete(ctx context.Context, actorID, studyID primitive.ObjectID) error {
	if err := s.perms.Require(ctx, actorID, model.ModuleCaseStudies, model.ActionDelete); err != nil {
		return err
	}

	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var deleted model.CaseStudy
		err := s.store.Collection(store.ColCaseStudies).FindOneAndDelete(sessCtx,
			bson.M{"_id": studyID}).Decode(&deleted)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Case study not found")
		}
		if err != nil {
			return fmt.Errorf("deleting case study: %w", err)
		}
		if deleted.Category != nil {
			return s.categories.DetachItem(sessCtx, *deleted.Category, studyID)
		}
		return nil
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("deleting case study %s: %w", studyID.Hex(), err))
	}
	return nil
}

func (s *CaseStudyService) get(ctx context.Context, studyID primitive.ObjectID) (*model.CaseStudy, error) {
	var study model.CaseStudy
	err := s.store.Collection(store.ColCaseStudies).FindOne(ctx, bson.M{"_id": studyID}).Decode(&study)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Case study not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading case study: %w", err))
	}
	return &study, nil
}
