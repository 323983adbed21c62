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

// ServicePageService manages service offering pages. Services carry no
// category tree, so only name/slug uniqueness applies.
type ServicePageService struct {
	store     *store.Store
	perms     *perm.Evaluator
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewServicePageService creates a ServicePageService.
func NewServicePageService(s *store.Store, perms *perm.Evaluator, logger *slog.Logger) *ServicePageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServicePageService{store: s, perms: perms, sanitizer: bluemonday.UGCPolicy(), logger: logger}
}

// ServicePageInput is the payload for Create and, with nil meaning
// untouched, the patch for Update.
type ServicePageInput struct {
	Name        *string
	Slug        *string
	Description *string
	Body        *string
	Image       *string
	Status      *string
}

// Create inserts a service page.
func (s *ServicePageService) Create(ctx context.Context, actorID primitive.ObjectID, in ServicePageInput) (*model.Service, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleServices, model.ActionCreate); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.BadRequest("Service name is required")
	}

	name := strings.TrimSpace(*in.Name)
	slug := util.SlugFrom(deref(in.Slug), name)
	if !util.IsValidSlug(slug) {
		return nil, apperr.BadRequest("Invalid slug")
	}
	if err := checkContentNameAndSlug(ctx, s.store.Collection(store.ColServices), "Service", "name", name, slug, primitive.NilObjectID); err != nil {
		return nil, err
	}

	now := time.Now()
	page := &model.Service{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Slug:        slug,
		Description: deref(in.Description),
		Body:        s.sanitizer.Sanitize(deref(in.Body)),
		Image:       deref(in.Image),
		Status:      model.StatusDraft,
		CreatedBy:   actorID,
		UpdatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != nil {
		if !validProductStatus(*in.Status) {
			return nil, apperr.BadRequest("Invalid status")
		}
		page.Status = *in.Status
	}

	if _, err := s.store.Collection(store.ColServices).InsertOne(ctx, page); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Service slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("creating service %s: %w", slug, err))
	}

	return page, nil
}

// Get loads a service page by id.
func (s *ServicePageService) Get(ctx context.Context, actorID, pageID primitive.ObjectID) (*model.Service, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleServices, model.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, pageID)
}

// List returns service pages sorted by name, optionally filtered by
// status.
func (s *ServicePageService) List(ctx context.Context, actorID primitive.ObjectID, status string) ([]model.Service, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleServices, model.ActionRead); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.store.Collection(store.ColServices).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing services: %w", err))
	}

	var pages []model.Service
	if err := cursor.All(ctx, &pages); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding services: %w", err))
	}
	return pages, nil
}

// Update patches a service page.
func (s *ServicePageService) Update(ctx context.Context, actorID, pageID primitive.ObjectID, in ServicePageInput) (*model.Service, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleServices, model.ActionUpdate); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, pageID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now(), "updatedBy": actorID}
	name := current.Name
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.BadRequest("Service name is required")
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
		if err := checkContentNameAndSlug(ctx, s.store.Collection(store.ColServices), "Service", "name", name, slug, pageID); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Body != nil {
		set["body"] = s.sanitizer.Sanitize(*in.Body)
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

	var updated model.Service
	err = s.store.Collection(store.ColServices).FindOneAndUpdate(ctx,
		bson.M{"_id": pageID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Service not found")
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Service slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("updating service %s: %w", pageID.Hex(), err))
	}

	return &updated, nil
}

// Delete removes a service page.
func (s *ServicePageService) Delete(ctx context.Context, actorID, pageID primitive.ObjectID) error {
	if err := s.perms.Require(ctx, actorID, model.ModuleServices, model.ActionDelete); err != nil {
		return err
	}

	result, err := s.store.Collection(store.ColServices).DeleteOne(ctx, bson.M{"_id": pageID})
	if err != nil {
		return apperr.Internal(fmt.Errorf("deleting service: %w", err))
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("Service not found")
	}
	return nil
}

func (s *ServicePageService) get(ctx context.Context, pageID primitive.ObjectID) (*model.Service, error) {
	var page model.Service
	err := s.store.Collection(store.ColServices).FindOne(ctx, bson.M{"_id": pageID}).Decode(&page)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Service not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading service: %w", err))
	}
	return &page, nil
}
