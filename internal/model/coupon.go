// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CouponApplicableOn discriminates what a coupon applies to.
const (
	CouponAllProducts       = "allProducts"
	CouponSpecificProducts  = "specificProducts"
	CouponProductCategories = "productCategories"
)

// Coupon discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFlat       = "flat"
)

// Coupon types.
const (
	CouponAmountBased   = "amountBased"
	CouponQuantityBased = "quantityBased"
)

// CouponUsage tracks per-user redemption counts.
type CouponUsage struct {
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	UsageCount int                `bson:"usageCount" json:"usageCount"`
}

// Coupon is a discount code. SpecificProducts is non-empty iff
// ApplicableOn is specificProducts; ProductCategories is non-empty iff
// ApplicableOn is productCategories. The two arrays are mutually
// exclusive by construction.
type Coupon struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Code              string               `bson:"code" json:"code"`
	ApplicableOn      string               `bson:"couponApplicableOn" json:"couponApplicableOn"`
	CouponType        string               `bson:"couponType" json:"couponType"`
	DiscountType      string               `bson:"discountType" json:"discountType"`
	DiscountValue     float64              `bson:"discountValue" json:"discountValue"`
	MinOrderAmount    float64              `bson:"minOrderAmount" json:"minOrderAmount"`
	MaxDiscountAmount float64              `bson:"maxDiscountAmount,omitempty" json:"maxDiscountAmount,omitempty"`
	SpecificProducts  []primitive.ObjectID `bson:"specificProducts" json:"specificProducts"`
	ProductCategories []primitive.ObjectID `bson:"productCategories" json:"productCategories"`
	MinQuantity       int                  `bson:"minQuantity" json:"minQuantity"`
	MaxQuantity       *int                 `bson:"maxQuantity,omitempty" json:"maxQuantity,omitempty"`
	UsageLimitPerUser *int                 `bson:"usageLimitPerUser,omitempty" json:"usageLimitPerUser,omitempty"`
	TotalUsageLimit   *int                 `bson:"totalUsageLimit,omitempty" json:"totalUsageLimit,omitempty"`
	UsedCount         int                  `bson:"usedCount" json:"usedCount"`
	UserUsage         []CouponUsage        `bson:"userUsage" json:"userUsage"`
	Status            string               `bson:"status" json:"status"`
	ExpiresAt         *time.Time           `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedBy         primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	UpdatedBy         *primitive.ObjectID  `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt" json:"updatedAt"`
}
