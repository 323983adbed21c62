// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// CartService manages per-user shopping carts. Every user has at most
// one cart, enforced by a unique index; carts are created lazily on
// first access.
type CartService struct {
	store    *store.Store
	products *ProductService
	coupons  *CouponService
	logger   *slog.Logger
}

// NewCartService creates a CartService.
func NewCartService(s *store.Store, products *ProductService, coupons *CouponService, logger *slog.Logger) *CartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{store: s, products: products, coupons: coupons, logger: logger}
}

// Get returns the user's cart, creating an empty one on first access.
func (s *CartService) Get(ctx context.Context, userID primitive.ObjectID) (*model.Cart, error) {
	now := time.Now()
	var cart model.Cart
	err := s.store.Collection(store.ColCarts).FindOneAndUpdate(ctx,
		bson.M{"user": userID},
		bson.M{"$setOnInsert": bson.M{
			"user":      userID,
			"items":     []model.CartItem{},
			"createdAt": now,
			"updatedAt": now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&cart)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading cart: %w", err))
	}
	return &cart, nil
}

// AddItem puts quantity units of a product into the cart, recording
// the product's current price. Adding an already-present product
// raises its quantity.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, apperr.BadRequest("Quantity must be positive")
	}

	product, err := s.products.get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != model.StatusPublished {
		return nil, apperr.BadRequest("Product is not available")
	}
	if product.Stock < quantity {
		return nil, apperr.Conflict("Insufficient stock")
	}

	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	var cart model.Cart
	err = s.store.Collection(store.ColCarts).FindOneAndUpdate(ctx,
		bson.M{"user": userID, "items.productId": productID},
		bson.M{
			"$inc": bson.M{"items.$.quantity": quantity},
			"$set": bson.M{"items.$.price": product.Price, "updatedAt": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cart)
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal(fmt.Errorf("updating cart item: %w", err))
	}

	err = s.store.Collection(store.ColCarts).FindOneAndUpdate(ctx,
		bson.M{"user": userID},
		bson.M{
			"$push": bson.M{"items": model.CartItem{
				ProductID: productID,
				Quantity:  quantity,
				Price:     product.Price,
				AddedAt:   now,
			}},
			"$set": bson.M{"updatedAt": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cart)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("adding cart item: %w", err))
	}
	return &cart, nil
}

// SetItemQuantity sets the quantity of a cart line; zero removes it.
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*model.Cart, error) {
	if quantity < 0 {
		return nil, apperr.BadRequest("Quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	var cart model.Cart
	err := s.store.Collection(store.ColCarts).FindOneAndUpdate(ctx,
		bson.M{"user": userID, "items.productId": productID},
		bson.M{"$set": bson.M{
			"items.$.quantity": quantity,
			"updatedAt":        time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Cart item not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("setting cart quantity: %w", err))
	}
	return &cart, nil
}

// RemoveItem drops a product line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*model.Cart, error) {
	var cart model.Cart
	err := s.store.Collection(store.ColCarts).FindOneAndUpdate(ctx,
		bson.M{"user": userID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"productId": productID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Cart not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("removing cart item: %w", err))
	}
	return &cart, nil
}

// ApplyCoupon validates a coupon code against the cart and attaches
// it.
func (s *CartService) ApplyCoupon(ctx context.Context, userID primitive.ObjectID, code string) (*model.Cart, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.BadRequest("Cart is empty")
	}

	coupon, err := s.coupons.Redeemable(ctx, userID, code, cart)
	if err != nil {
		return nil, err
	}

	var updated model.Cart
	err = s.store.Collection(store.ColCarts).FindOneAndUpdate(ctx,
		bson.M{"user": userID},
		bson.M{"$set": bson.M{"coupon": coupon.ID, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("applying coupon: %w", err))
	}
	return &updated, nil
}

// RemoveCoupon detaches any coupon from the cart.
func (s *CartService) RemoveCoupon(ctx context.Context, userID primitive.ObjectID) (*model.Cart, error) {
	var cart model.Cart
	err := s.store.Collection(store.ColCarts).FindOneAndUpdate(ctx,
		bson.M{"user": userID},
		bson.M{
			"$unset": bson.M{"coupon": ""},
			"$set":   bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Cart not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("removing coupon: %w", err))
	}
	return &cart, nil
}

// Clear empties the cart and drops its coupon.
func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.store.Collection(store.ColCarts).UpdateOne(ctx,
		bson.M{"user": userID},
		bson.M{
			"$set":   bson.M{"items": []model.CartItem{}, "updatedAt": time.Now()},
			"$unset": bson.M{"coupon": ""},
		})
	if err != nil {
		return apperr.Internal(fmt.Errorf("clearing cart: %w", err))
	}
	return nil
}

// ExpireStale empties every cart not touched since the cutoff. The
// scheduler runs it hourly; it returns how many carts were emptied.
func (s *CartService) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.store.Collection(store.ColCarts).UpdateMany(ctx,
		bson.M{
			"updatedAt": bson.M{"$lt": cutoff},
			"items.0":   bson.M{"$exists": true},
		},
		bson.M{
			"$set":   bson.M{"items": []model.CartItem{}, "updatedAt": time.Now()},
			"$unset": bson.M{"coupon": ""},
		})
	if err != nil {
		return 0, fmt.Errorf("expiring stale carts: %w", err)
	}
	return result.ModifiedCount, nil
}
