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

// BlogService manages blog posts: CRUD, category back-references and
// scheduled publication.
type BlogService struct {
	store      *store.Store
	perms      *perm.Evaluator
	categories *CategoryService
	sanitizer  *bluemonday.Policy
	logger     *slog.Logger
}

// NewBlogService creates a BlogService. categories must be bound to
// the blog category tree.
func NewBlogService(s *store.Store, perms *perm.Evaluator, categories *CategoryService, logger *slog.Logger) *BlogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlogService{
		store:      s,
		perms:      perms,
		categories: categories,
		sanitizer:  bluemonday.UGCPolicy(),
		logger:     logger,
	}
}

// BlogInput is the payload for Create and, with nil meaning untouched,
// the patch for Update.
type BlogInput struct {
	Title       *string
	Slug        *string
	Body        *string
	Excerpt     *string
	Image       *string
	Status      *string
	PublishDate *time.Time
	Category    **primitive.ObjectID
	Tags        *[]string
}

// Create inserts a blog post and registers it in its category's items
// list.
func (s *BlogService) Create(ctx context.Context, actorID primitive.ObjectID, in BlogInput) (*model.Blog, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleBlogs, model.ActionCreate); err != nil {
		return nil, err
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.BadRequest("Blog title is required")
	}

	title := strings.TrimSpace(*in.Title)
	slug := util.SlugFrom(deref(in.Slug), title)
	if !util.IsValidSlug(slug) {
		return nil, apperr.BadRequest("Invalid slug")
	}
	if err := checkContentNameAndSlug(ctx, s.store.Collection(store.ColBlogs), "Blog", "title", title, slug, primitive.NilObjectID); err != nil {
		return nil, err
	}

	status, publishDate, err := resolvePublication(deref(in.Status), in.PublishDate, time.Now())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	blog := &model.Blog{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Slug:        slug,
		Body:        s.sanitizer.Sanitize(deref(in.Body)),
		Excerpt:     deref(in.Excerpt),
		Image:       deref(in.Image),
		Status:      status,
		PublishDate: publishDate,
		Tags:        derefSlice(in.Tags),
		CreatedBy:   actorID,
		UpdatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Category != nil {
		blog.Category = *in.Category
	}

	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.store.Collection(store.ColBlogs).InsertOne(sessCtx, blog); err != nil {
			return err
		}
		if blog.Category != nil {
			return s.categories.AttachItem(sessCtx, *blog.Category, blog.ID)
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Blog slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("creating blog %s: %w", slug, err))
	}

	return blog, nil
}

// Get loads a blog post by id.
func (s *BlogService) Get(ctx context.Context, actorID, blogID primitive.ObjectID) (*model.Blog, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleBlogs, model.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, blogID)
}

// List returns blog posts, newest first, optionally filtered by
// status.
func (s *BlogService) List(ctx context.Context, actorID primitive.ObjectID, status string) ([]model.Blog, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleBlogs, model.ActionRead); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.store.Collection(store.ColBlogs).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing blogs: %w", err))
	}

	var blogs []model.Blog
	if err := cursor.All(ctx, &blogs); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding blogs: %w", err))
	}
	return blogs, nil
}

// Update patches a blog post. A category change re-links the post:
// pulled from the old category's items, added to the new one's, in the
// same transaction as the document write.
func (s *BlogService) Update(ctx context.Context, actorID, blogID primitive.ObjectID, in BlogInput) (*model.Blog, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleBlogs, model.ActionUpdate); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, blogID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now(), "updatedBy": actorID}
	title := current.Title
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperr.BadRequest("Blog title is required")
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
		if err := checkContentNameAndSlug(ctx, s.store.Collection(store.ColBlogs), "Blog", "title", title, slug, blogID); err != nil {
			return nil, err
		}
	}
	if in.Body != nil {
		set["body"] = s.sanitizer.Sanitize(*in.Body)
	}
	if in.Excerpt != nil {
		set["excerpt"] = *in.Excerpt
	}
	if in.Image != nil {
		set["image"] = *in.Image
	}
	if in.Tags != nil {
		set["tags"] = *in.Tags
	}
	if in.Status != nil || in.PublishDate != nil {
		status := current.Status
		if in.Status != nil {
			status = *in.Status
		}
		publishDate := current.PublishDate
		if in.PublishDate != nil {
			publishDate = in.PublishDate
		}
		status, publishDate, err = resolvePublication(status, publishDate, time.Now())
		if err != nil {
			return nil, err
		}
		set["status"] = status
		set["publishDate"] = publishDate
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

	var updated model.Blog
	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := s.store.Collection(store.ColBlogs).FindOneAndUpdate(sessCtx,
			bson.M{"_id": blogID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Blog not found")
		}
		if err != nil {
			return err
		}

		if relink {
			if current.Category != nil {
				if err := s.categories.DetachItem(sessCtx, *current.Category, blogID); err != nil {
					return err
				}
			}
			if newCategory != nil {
				if err := s.categories.AttachItem(sessCtx, *newCategory, blogID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Blog slug already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("updating blog %s: %w", blogID.Hex(), err))
	}

	return &updated, nil
}

// Delete removes a blog post and its category back-reference.
func (s *BlogService) Delete(ctx context.Context, actorID, blogID primitive.ObjectID) error {
	if err := s.perms.Require(ctx, actorID, model.ModuleBlogs, model.ActionDelete); err != nil {
		return err
	}

	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var deleted model.Blog
		err := s.store.Collection(store.ColBlogs).FindOneAndDelete(sessCtx,
			bson.M{"_id": blogID}).Decode(&deleted)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Blog not found")
		}
		if err != nil {
			return fmt.Errorf("deleting blog: %w", err)
		}
		if deleted.Category != nil {
			return s.categories.DetachItem(sessCtx, *deleted.Category, blogID)
		}
		return nil
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("deleting blog %s: %w", blogID.Hex(), err))
	}
	return nil
}

// PublishDue flips every scheduled post whose publish date has passed
// to published. The scheduler calls it once a minute.
func (s *BlogService) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.store.Collection(store.ColBlogs).UpdateMany(ctx,
		bson.M{
			"status":      model.StatusScheduled,
			"publishDate": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{
			"status":    model.StatusPublished,
			"updatedAt": now,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("publishing due blogs: %w", err)
	}
	return result.ModifiedCount, nil
}

func (s *BlogService) get(ctx context.Context, blogID primitive.ObjectID) (*model.Blog, error) {
	var blog model.Blog
	err := s.store.Collection(store.ColBlogs).FindOne(ctx, bson.M{"_id": blogID}).Decode(&blog)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Blog not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading blog: %w", err))
	}
	return &blog, nil
}

// resolvePublication validates the status/publishDate pair. Scheduled
// posts need a future publish date; a scheduled post whose date has
// already passed publishes immediately.
func resolvePublication(status string, publishDate *time.Time, now time.Time) (string, *time.Time, error) {
	if status == "" {
		status = model.StatusDraft
	}
	switch status {
	case model.StatusDraft, model.StatusPublished, model.StatusArchived:
		return status, publishDate, nil
	case model.StatusScheduled:
		if publishDate == nil {
			return "", nil, apperr.BadRequest("Scheduled posts need a publish date")
		}
		if !publishDate.After(now) {
			return model.StatusPublished, publishDate, nil
		}
		return status, publishDate, nil
	default:
		return "", nil, apperr.BadRequest("Invalid status")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefSlice(s *[]string) []string {
	if s == nil {
		return nil
	}
	return *s
}
