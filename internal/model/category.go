// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a tree node shared by the blog, product and case-study
// category collections. SubCategories and Items are denormalized
// back-references maintained by the relationship-consistency
// protocols:
//
//   - SubCategories equals the set of categories whose ParentCategory
//     points here.
//   - Items equals the set of content documents referencing this
//     category as category or subCategory.
type Category struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	Slug           string               `bson:"slug" json:"slug"`
	Description    string               `bson:"description,omitempty" json:"description,omitempty"`
	Status         bool                 `bson:"status" json:"status"`
	ParentCategory *primitive.ObjectID  `bson:"parentCategory" json:"parentCategory"`
	SubCategories  []primitive.ObjectID `bson:"subCategories" json:"subCategories"`
	Items          []primitive.ObjectID `bson:"items" json:"items"`
	CreatedBy      primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy      primitive.ObjectID   `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasParent reports whether the category has a parent reference.
func (c *Category) HasParent() bool {
	return c.ParentCategory != nil && !c.ParentCategory.IsZero()
}
