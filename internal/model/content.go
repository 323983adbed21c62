// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content statuses shared by blogs, case studies and services.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
	StatusArchived  = "archived"
)

// Blog is a blog post. Slug is unique and derived from the title when
// not supplied. Category is a back-linked reference into the blog
// category tree.
type Blog struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Slug        string              `bson:"slug" json:"slug"`
	Body        string              `bson:"body" json:"body"`
	Excerpt     string              `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Image       string              `bson:"image,omitempty" json:"image,omitempty"`
	Status      string              `bson:"status" json:"status"`
	PublishDate *time.Time          `bson:"publishDate,omitempty" json:"publishDate,omitempty"`
	Category    *primitive.ObjectID `bson:"category" json:"category"`
	Tags        []string            `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy   primitive.ObjectID  `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Product is a sellable item. SubCategory entries must each have a
// ParentCategory equal to the product's Category.
type Product struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Slug        string               `bson:"slug" json:"slug"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64              `bson:"price" json:"price"`
	Stock       int                  `bson:"stock" json:"stock"`
	Images      []string             `bson:"images,omitempty" json:"images,omitempty"`
	Status      string               `bson:"status" json:"status"`
	Category    *primitive.ObjectID  `bson:"category" json:"category"`
	SubCategory []primitive.ObjectID `bson:"subCategory,omitempty" json:"subCategory,omitempty"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy   primitive.ObjectID   `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CaseStudy is a customer case study with the same slug and category
// semantics as Blog.
type CaseStudy struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title     string              `bson:"title" json:"title"`
	Slug      string              `bson:"slug" json:"slug"`
	Body      string              `bson:"body" json:"body"`
	Client    string              `bson:"client,omitempty" json:"client,omitempty"`
	Image     string              `bson:"image,omitempty" json:"image,omitempty"`
	Status    string              `bson:"status" json:"status"`
	Category  *primitive.ObjectID `bson:"category" json:"category"`
	CreatedBy primitive.ObjectID  `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy primitive.ObjectID  `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Service is a service offering page.
type Service struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Body        string             `bson:"body,omitempty" json:"body,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Status      string             `bson:"status" json:"status"`
	CreatedBy   primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy   primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
