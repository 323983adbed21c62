// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one product line in a cart.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`
}

// Cart is a user's shopping cart. Stale carts (UpdatedAt older than
// the configured expiry) are emptied by the scheduler sweep.
type Cart struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID  `bson:"user" json:"user"`
	Items     []CartItem          `bson:"items" json:"items"`
	Coupon    *primitive.ObjectID `bson:"coupon,omitempty" json:"coupon,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Subtotal returns the cart total before any coupon discount.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// OrderItem is a frozen product line on a placed order.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a placed order built from a cart snapshot.
type Order struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User        primitive.ObjectID  `bson:"user" json:"user"`
	Items       []OrderItem         `bson:"items" json:"items"`
	Coupon      *primitive.ObjectID `bson:"coupon,omitempty" json:"coupon,omitempty"`
	Subtotal    float64             `bson:"subtotal" json:"subtotal"`
	Discount    float64             `bson:"discount" json:"discount"`
	Total       float64             `bson:"total" json:"total"`
	Status      string              `bson:"status" json:"status"`
	PlacedAt    time.Time           `bson:"placedAt" json:"placedAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
	CancelledAt *time.Time          `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}
