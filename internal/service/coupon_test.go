// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func intPtr(n int) *int { return &n }

func baseCoupon() *model.Coupon {
	return &model.Coupon{
		Code:          "SAVE10",
		ApplicableOn:  model.CouponAllProducts,
		CouponType:    model.CouponAmountBased,
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 10,
		Status:        "active",
	}
}

func TestValidateCouponTargets(t *testing.T) {
	product := primitive.NewObjectID()
	category := primitive.NewObjectID()

	tests := []struct {
		name    string
		mutate  func(*model.Coupon)
		wantErr bool
	}{
		{"all products clean", func(c *model.Coupon) {}, false},
		{"all products with products", func(c *model.Coupon) {
			c.SpecificProducts = []primitive.ObjectID{product}
		}, true},
		{"specific products populated", func(c *model.Coupon) {
			c.ApplicableOn = model.CouponSpecificProducts
			c.SpecificProducts = []primitive.ObjectID{product}
		}, false},
		{"specific products empty", func(c *model.Coupon) {
			c.ApplicableOn = model.CouponSpecificProducts
		}, true},
		{"specific products with categories", func(c *model.Coupon) {
			c.ApplicableOn = model.CouponSpecificProducts
			c.SpecificProducts = []primitive.ObjectID{product}
			c.ProductCategories = []primitive.ObjectID{category}
		}, true},
		{"categories populated", func(c *model.Coupon) {
			c.ApplicableOn = model.CouponProductCategories
			c.ProductCategories = []primitive.ObjectID{category}
		}, false},
		{"categories empty", func(c *model.Coupon) {
			c.ApplicableOn = model.CouponProductCategories
		}, true},
		{"unknown target", func(c *model.Coupon) {
			c.ApplicableOn = "someProducts"
		}, true},
		{"percentage over 100", func(c *model.Coupon) {
			c.DiscountValue = 120
		}, true},
		{"flat discount ok", func(c *model.Coupon) {
			c.DiscountType = model.DiscountFlat
			c.DiscountValue = 250
		}, false},
		{"max below min quantity", func(c *model.Coupon) {
			c.MinQuantity = 5
			c.MaxQuantity = intPtr(3)
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCoupon()
			tt.mutate(c)
			err := validateCoupon(c)
			if tt.wantErr && !apperr.IsKind(err, apperr.KindBadRequest) {
				t.Errorf("validateCoupon() error = %v, want BadRequest", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validateCoupon() error = %v, want nil", err)
			}
		})
	}
}

func TestCheckRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := primitive.NewObjectID()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cart := &model.Cart{Items: []model.CartItem{
		{ProductID: primitive.NewObjectID(), Quantity: 2, Price: 50},
	}}

	t.Run("active coupon applies", func(t *testing.T) {
		if err := checkRedeemable(baseCoupon(), userID, cart, now); err != nil {
			t.Errorf("checkRedeemable() error = %v", err)
		}
	})

	t.Run("inactive rejected", func(t *testing.T) {
		c := baseCoupon()
		c.Status = "inactive"
		if err := checkRedeemable(c, userID, cart, now); !apperr.IsKind(err, apperr.KindBadRequest) {
			t.Errorf("error = %v, want BadRequest", err)
		}
	})

	t.Run("expired rejected", func(t *testing.T) {
		c := baseCoupon()
		c.ExpiresAt = &past
		if err := checkRedeemable(c, userID, cart, now); !apperr.IsKind(err, apperr.KindBadRequest) {
			t.Errorf("error = %v, want BadRequest", err)
		}
	})

	t.Run("future expiry accepted", func(t *testing.T) {
		c := baseCoupon()
		c.ExpiresAt = &future
		if err := checkRedeemable(c, userID, cart, now); err != nil {
			t.Errorf("checkRedeemable() error = %v", err)
		}
	})

	t.Run("total limit reached", func(t *testing.T) {
		c := baseCoupon()
		c.TotalUsageLimit = intPtr(5)
		c.UsedCount = 5
		if err := checkRedeemable(c, userID, cart, now); !apperr.IsKind(err, apperr.KindConflict) {
			t.Errorf("error = %v, want Conflict", err)
		}
	})

	t.Run("per-user limit reached", func(t *testing.T) {
		c := baseCoupon()
		c.UsageLimitPerUser = intPtr(2)
		c.UserUsage = []model.CouponUsage{{UserID: userID, UsageCount: 2}}
		if err := checkRedeemable(c, userID, cart, now); !apperr.IsKind(err, apperr.KindConflict) {
			t.Errorf("error = %v, want Conflict", err)
		}
	})

	t.Run("below minimum order", func(t *testing.T) {
		c := baseCoupon()
		c.MinOrderAmount = 500
		if err := checkRedeemable(c, userID, cart, now); !apperr.IsKind(err, apperr.KindBadRequest) {
			t.Errorf("error = %v, want BadRequest", err)
		}
	})

	t.Run("quantity window enforced", func(t *testing.T) {
		c := baseCoupon()
		c.CouponType = model.CouponQuantityBased
		c.MinQuantity = 3
		if err := checkRedeemable(c, userID, cart, now); !apperr.IsKind(err, apperr.KindBadRequest) {
			t.Errorf("error = %v, want BadRequest", err)
		}
		c.MinQuantity = 1
		c.MaxQuantity = intPtr(1)
		if err := checkRedeemable(c, userID, cart, now); !apperr.IsKind(err, apperr.KindBadRequest) {
			t.Errorf("error = %v, want BadRequest", err)
		}
	})
}

func TestCouponDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   model.Coupon
		subtotal float64
		want     float64
	}{
		{"percentage", model.Coupon{DiscountType: model.DiscountPercentage, DiscountValue: 10}, 200, 20},
		{"flat", model.Coupon{DiscountType: model.DiscountFlat, DiscountValue: 30}, 200, 30},
		{"capped by max", model.Coupon{DiscountType: model.DiscountPercentage, DiscountValue: 50, MaxDiscountAmount: 40}, 200, 40},
		{"never exceeds subtotal", model.Coupon{DiscountType: model.DiscountFlat, DiscountValue: 500}, 200, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := couponDiscount(&tt.coupon, tt.subtotal); got != tt.want {
				t.Errorf("couponDiscount() = %v, want %v", got, tt.want)
			}
		})
	}
}
