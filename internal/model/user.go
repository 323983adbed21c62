// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the MongoDB document models used throughout
// the application: users, roles, categories, content items, tickets,
// coupons, carts and orders.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleType is the coarse three-way classification of a user used for
// default-assignment and default-visibility rules. It is not itself a
// permission check.
type RoleType string

// Role types.
const (
	RoleTypeAdmin    RoleType = "admin"
	RoleTypeSupport  RoleType = "support"
	RoleTypeCustomer RoleType = "customer"
)

// WishlistEntry is a product reference on a user's wishlist.
type WishlistEntry struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	DateAdded time.Time          `bson:"dateAdded" json:"dateAdded"`
}

// User represents an account document. Admins (IsAdmin) bypass all
// permission checks; everyone else is governed by the referenced Role.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Image        string               `bson:"image,omitempty" json:"image,omitempty"`
	Name         string               `bson:"name" json:"name"`
	UserName     string               `bson:"userName,omitempty" json:"userName,omitempty"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"password,omitempty" json:"-"` // never expose in JSON
	Contact      string               `bson:"contact,omitempty" json:"contact,omitempty"`
	IsAdmin      bool                 `bson:"isAdmin" json:"isAdmin"`
	Role         *primitive.ObjectID  `bson:"role" json:"role"`
	OrderHistory []primitive.ObjectID `bson:"orderHistory,omitempty" json:"orderHistory,omitempty"`
	Cart         *primitive.ObjectID  `bson:"cart,omitempty" json:"cart,omitempty"`
	Wishlist     []WishlistEntry      `bson:"wishlist,omitempty" json:"wishlist,omitempty"`
	Status       string               `bson:"status" json:"status"`
	IsVerified   bool                 `bson:"isVerifiedUser" json:"isVerifiedUser"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasRole reports whether the user carries a valid role reference.
func (u *User) HasRole() bool {
	return u.Role != nil && !u.Role.IsZero()
}
