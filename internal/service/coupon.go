// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
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
)

// CouponService manages discount coupons and their redemption
// accounting.
type CouponService struct {
	store  *store.Store
	perms  *perm.Evaluator
	logger *slog.Logger
}

// NewCouponService creates a CouponService.
func NewCouponService(s *store.Store, perms *perm.Evaluator, logger *slog.Logger) *CouponService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CouponService{store: s, perms: perms, logger: logger}
}

// CouponInput is the payload for Create and, with nil meaning
// untouched, the patch for Update.
type CouponInput struct {
	Code              *string
	ApplicableOn      *string
	CouponType        *string
	DiscountType      *string
	DiscountValue     *float64
	MinOrderAmount    *float64
	MaxDiscountAmount *float64
	SpecificProducts  *[]primitive.ObjectID
	ProductCategories *[]primitive.ObjectID
	MinQuantity       *int
	MaxQuantity       **int
	UsageLimitPerUser **int
	TotalUsageLimit   **int
	Status            *string
	ExpiresAt         **time.Time
}

// Create inserts a coupon. Codes are stored uppercased and are unique.
func (s *CouponService) Create(ctx context.Context, actorID primitive.ObjectID, in CouponInput) (*model.Coupon, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleCoupons, model.ActionCreate); err != nil {
		return nil, err
	}
	if in.Code == nil || strings.TrimSpace(*in.Code) == "" {
		return nil, apperr.BadRequest("Coupon code is required")
	}

	now := time.Now()
	coupon := &model.Coupon{
		ID:                primitive.NewObjectID(),
		Code:              strings.ToUpper(strings.TrimSpace(*in.Code)),
		ApplicableOn:      model.CouponAllProducts,
		CouponType:        model.CouponAmountBased,
		DiscountType:      model.DiscountPercentage,
		SpecificProducts:  []primitive.ObjectID{},
		ProductCategories: []primitive.ObjectID{},
		UserUsage:         []model.CouponUsage{},
		Status:            "active",
		CreatedBy:         actorID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	applyCouponInput(coupon, in)

	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}

	if _, err := s.store.Collection(store.ColCoupons).InsertOne(ctx, coupon); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Coupon code already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("creating coupon: %w", err))
	}

	return coupon, nil
}

// Get loads a coupon by id.
func (s *CouponService) Get(ctx context.Context, actorID, couponID primitive.ObjectID) (*model.Coupon, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleCoupons, model.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, couponID)
}

// List returns coupons, newest first.
func (s *CouponService) List(ctx context.Context, actorID primitive.ObjectID) ([]model.Coupon, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleCoupons, model.ActionRead); err != nil {
		return nil, err
	}

	cursor, err := s.store.Collection(store.ColCoupons).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing coupons: %w", err))
	}

	var coupons []model.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding coupons: %w", err))
	}
	return coupons, nil
}

// Update patches a coupon, re-validating the discriminated target
// invariants on the merged document before writing.
func (s *CouponService) Update(ctx context.Context, actorID, couponID primitive.ObjectID, in CouponInput) (*model.Coupon, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleCoupons, model.ActionUpdate); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, couponID)
	if err != nil {
		return nil, err
	}

	merged := *current
	applyCouponInput(&merged, in)
	if in.Code != nil {
		if strings.TrimSpace(*in.Code) == "" {
			return nil, apperr.BadRequest("Coupon code is required")
		}
		merged.Code = strings.ToUpper(strings.TrimSpace(*in.Code))
	}
	if err := validateCoupon(&merged); err != nil {
		return nil, err
	}

	merged.UpdatedAt = time.Now()
	merged.UpdatedBy = &actorID

	var updated model.Coupon
	err = s.store.Collection(store.ColCoupons).FindOneAndUpdate(ctx,
		bson.M{"_id": couponID},
		bson.M{"$set": bson.M{
			"code":               merged.Code,
			"couponApplicableOn": merged.ApplicableOn,
			"couponType":         merged.CouponType,
			"discountType":       merged.DiscountType,
			"discountValue":      merged.DiscountValue,
			"minOrderAmount":     merged.MinOrderAmount,
			"maxDiscountAmount":  merged.MaxDiscountAmount,
			"specificProducts":   merged.SpecificProducts,
			"productCategories":  merged.ProductCategories,
			"minQuantity":        merged.MinQuantity,
			"maxQuantity":        merged.MaxQuantity,
			"usageLimitPerUser":  merged.UsageLimitPerUser,
			"totalUsageLimit":    merged.TotalUsageLimit,
			"status":             merged.Status,
			"expiresAt":          merged.ExpiresAt,
			"updatedAt":          merged.UpdatedAt,
			"updatedBy":          merged.UpdatedBy,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Coupon not found")
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Coupon code already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("updating coupon %s: %w", couponID.Hex(), err))
	}

	return &updated, nil
}

// Delete removes a coupon and clears it from any cart referencing it.
func (s *CouponService) Delete(ctx context.Context, actorID, couponID primitive.ObjectID) error {
	if err := s.perms.Require(ctx, actorID, model.ModuleCoupons, model.ActionDelete); err != nil {
		return err
	}

	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, err := s.store.Collection(store.ColCoupons).DeleteOne(sessCtx, bson.M{"_id": couponID})
		if err != nil {
			return fmt.Errorf("deleting coupon: %w", err)
		}
		if result.DeletedCount == 0 {
			return apperr.NotFound("Coupon not found")
		}

		if _, err := s.store.Collection(store.ColCarts).UpdateMany(sessCtx,
			bson.M{"coupon": couponID},
			bson.M{"$unset": bson.M{"coupon": ""}},
		); err != nil {
			return fmt.Errorf("clearing coupon from carts: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Redeemable checks a coupon against a cart snapshot and returns the
// coupon when it applies. It does not consume usage; RecordRedemption
// does that when the order is placed.
func (s *CouponService) Redeemable(ctx context.Context, userID primitive.ObjectID, code string, cart *model.Cart) (*model.Coupon, error) {
	var coupon model.Coupon
	err := s.store.Collection(store.ColCoupons).FindOne(ctx,
		bson.M{"code": strings.ToUpper(strings.TrimSpace(code))}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Coupon not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading coupon: %w", err))
	}

	if err := checkRedeemable(&coupon, userID, cart, time.Now()); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// RecordRedemption bumps the coupon's total and per-user usage
// counters. The filter re-checks the total limit so a concurrent
// redemption cannot push usage past it.
func (s *CouponService) RecordRedemption(ctx context.Context, couponID, userID primitive.ObjectID) error {
	underLimit := bson.A{
		bson.M{"totalUsageLimit": nil},
		bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$totalUsageLimit"}}},
	}

	result, err := s.store.Collection(store.ColCoupons).UpdateOne(ctx,
		bson.M{"_id": couponID, "userUsage.userId": userID, "$or": underLimit},
		bson.M{
			"$inc": bson.M{"usedCount": 1, "userUsage.$.usageCount": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return apperr.Internal(fmt.Errorf("recording coupon usage: %w", err))
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// First redemption by this user.
	result, err = s.store.Collection(store.ColCoupons).UpdateOne(ctx,
		bson.M{"_id": couponID, "userUsage.userId": bson.M{"$ne": userID}, "$or": underLimit},
		bson.M{
			"$inc":  bson.M{"usedCount": 1},
			"$push": bson.M{"userUsage": model.CouponUsage{UserID: userID, UsageCount: 1}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return apperr.Internal(fmt.Errorf("recording coupon usage: %w", err))
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("Coupon usage limit reached")
	}
	return nil
}

func (s *CouponService) get(ctx context.Context, couponID primitive.ObjectID) (*model.Coupon, error) {
	var coupon model.Coupon
	err := s.store.Collection(store.ColCoupons).FindOne(ctx, bson.M{"_id": couponID}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Coupon not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading coupon: %w", err))
	}
	return &coupon, nil
}

// applyCouponInput copies non-nil input fields onto the coupon.
func applyCouponInput(c *model.Coupon, in CouponInput) {
	if in.ApplicableOn != nil {
		c.ApplicableOn = *in.ApplicableOn
	}
	if in.CouponType != nil {
		c.CouponType = *in.CouponType
	}
	if in.DiscountType != nil {
		c.DiscountType = *in.DiscountType
	}
	if in.DiscountValue != nil {
		c.DiscountValue = *in.DiscountValue
	}
	if in.MinOrderAmount != nil {
		c.MinOrderAmount = *in.MinOrderAmount
	}
	if in.MaxDiscountAmount != nil {
		c.MaxDiscountAmount = *in.MaxDiscountAmount
	}
	if in.SpecificProducts != nil {
		c.SpecificProducts = *in.SpecificProducts
	}
	if in.ProductCategories != nil {
		c.ProductCategories = *in.ProductCategories
	}
	if in.MinQuantity != nil {
		c.MinQuantity = *in.MinQuantity
	}
	if in.MaxQuantity != nil {
		c.MaxQuantity = *in.MaxQuantity
	}
	if in.UsageLimitPerUser != nil {
		c.UsageLimitPerUser = *in.UsageLimitPerUser
	}
	if in.TotalUsageLimit != nil {
		c.TotalUsageLimit = *in.TotalUsageLimit
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.ExpiresAt != nil {
		c.ExpiresAt = *in.ExpiresAt
	}
}

// validateCoupon enforces the discriminated target invariants: the
// product and category arrays must match ApplicableOn and never both
// be populated.
func validateCoupon(c *model.Coupon) error {
	switch c.ApplicableOn {
	case model.CouponAllProducts:
		if len(c.SpecificProducts) > 0 || len(c.ProductCategories) > 0 {
			return apperr.BadRequest("All-product coupons cannot list products or categories")
		}
	case model.CouponSpecificProducts:
		if len(c.SpecificProducts) == 0 {
			return apperr.BadRequest("Product-specific coupons need at least one product")
		}
		if len(c.ProductCategories) > 0 {
			return apperr.BadRequest("Product-specific coupons cannot list categories")
		}
	case model.CouponProductCategories:
		if len(c.ProductCategories) == 0 {
			return apperr.BadRequest("Category coupons need at least one category")
		}
		if len(c.SpecificProducts) > 0 {
			return apperr.BadRequest("Category coupons cannot list products")
		}
	default:
		return apperr.BadRequest("Invalid coupon target")
	}

	switch c.CouponType {
	case model.CouponAmountBased, model.CouponQuantityBased:
	default:
		return apperr.BadRequest("Invalid coupon type")
	}

	switch c.DiscountType {
	case model.DiscountPercentage:
		if c.DiscountValue <= 0 || c.DiscountValue > 100 {
			return apperr.BadRequest("Percentage discount must be between 0 and 100")
		}
	case model.DiscountFlat:
		if c.DiscountValue <= 0 {
			return apperr.BadRequest("Flat discount must be positive")
		}
	default:
		return apperr.BadRequest("Invalid discount type")
	}

	if c.MinOrderAmount < 0 {
		return apperr.BadRequest("Minimum order amount cannot be negative")
	}
	if c.MaxQuantity != nil && *c.MaxQuantity < c.MinQuantity {
		return apperr.BadRequest("Maximum quantity cannot be below minimum quantity")
	}
	return nil
}

// checkRedeemable applies the runtime redemption rules against a cart.
func checkRedeemable(c *model.Coupon, userID primitive.ObjectID, cart *model.Cart, now time.Time) error {
	if c.Status != "active" {
		return apperr.BadRequest("Coupon is not active")
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return apperr.BadRequest("Coupon has expired")
	}
	if c.TotalUsageLimit != nil && c.UsedCount >= *c.TotalUsageLimit {
		return apperr.Conflict("Coupon usage limit reached")
	}
	if c.UsageLimitPerUser != nil {
		for _, usage := range c.UserUsage {
			if usage.UserID == userID && usage.UsageCount >= *c.UsageLimitPerUser {
				return apperr.Conflict("Coupon usage limit reached for this user")
			}
		}
	}

	if cart != nil {
		if c.MinOrderAmount > 0 && cart.Subtotal() < c.MinOrderAmount {
			return apperr.BadRequest("Cart total is below the coupon minimum")
		}
		if c.CouponType == model.CouponQuantityBased {
			quantity := 0
			for _, item := range cart.Items {
				quantity += item.Quantity
			}
			if quantity < c.MinQuantity {
				return apperr.BadRequest("Cart quantity is below the coupon minimum")
			}
			if c.MaxQuantity != nil && quantity > *c.MaxQuantity {
				return apperr.BadRequest("Cart quantity exceeds the coupon maximum")
			}
		}
	}
	return nil
}

// couponDiscount computes the discount a coupon grants on a subtotal,
// capped by MaxDiscountAmount and never exceeding the subtotal.
func couponDiscount(c *model.Coupon, subtotal float64) float64 {
	var discount float64
	switch c.DiscountType {
	case model.DiscountPercentage:
		discount = subtotal * c.DiscountValue / 100
	case model.DiscountFlat:
		discount = c.DiscountValue
	}
	if c.MaxDiscountAmount > 0 {
		discount = math.Min(discount, c.MaxDiscountAmount)
	}
	return math.Min(discount, subtotal)
}
