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
	"github.com/nimbuswork/storeadmin-go/internal/perm"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// OrderService places orders from cart snapshots and manages their
// lifecycle.
type OrderService struct {
	store    *store.Store
	perms    *perm.Evaluator
	products *ProductService
	carts    *CartService
	coupons  *CouponService
	logger   *slog.Logger
}

// NewOrderService creates an OrderService.
func NewOrderService(s *store.Store, perms *perm.Evaluator, products *ProductService, carts *CartService, coupons *CouponService, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{store: s, perms: perms, products: products, carts: carts, coupons: coupons, logger: logger}
}

// Place turns the user's cart into an order. In one transaction: stock
// is decremented per line (rejecting the order if any line exceeds
// stock), coupon usage is recorded, the order is inserted and the cart
// emptied.
func (s *OrderService) Place(ctx context.Context, userID primitive.ObjectID) (*model.Order, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.BadRequest("Cart is empty")
	}

	subtotal := cart.Subtotal()
	var discount float64
	var coupon *model.Coupon
	if cart.Coupon != nil {
		coupon, err = s.coupons.get(ctx, *cart.Coupon)
		if err != nil {
			return nil, err
		}
		if err := checkRedeemable(coupon, userID, cart, time.Now()); err != nil {
			return nil, err
		}
		discount = couponDiscount(coupon, subtotal)
	}

	now := time.Now()
	order := &model.Order{
		ID:        primitive.NewObjectID(),
		User:      userID,
		Coupon:    cart.Coupon,
		Subtotal:  subtotal,
		Discount:  discount,
		Total:     subtotal - discount,
		Status:    model.OrderStatusPending,
		PlacedAt:  now,
		UpdatedAt: now,
	}

	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for _, item := range cart.Items {
			product, err := s.products.get(sessCtx, item.ProductID)
			if err != nil {
				return err
			}
			if err := s.products.AdjustStock(sessCtx, item.ProductID, -item.Quantity); err != nil {
				return err
			}
			order.Items = append(order.Items, model.OrderItem{
				ProductID: item.ProductID,
				Name:      product.Name,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}

		if coupon != nil {
			if err := s.coupons.RecordRedemption(sessCtx, coupon.ID, userID); err != nil {
				return err
			}
		}

		if _, err := s.store.Collection(store.ColOrders).InsertOne(sessCtx, order); err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		if _, err := s.store.Collection(store.ColUsers).UpdateOne(sessCtx,
			bson.M{"_id": userID},
			bson.M{"$addToSet": bson.M{"orderHistory": order.ID}},
		); err != nil {
			return fmt.Errorf("recording order history: %w", err)
		}

		if _, err := s.store.Collection(store.ColCarts).UpdateOne(sessCtx,
			bson.M{"user": userID},
			bson.M{
				"$set":   bson.M{"items": []model.CartItem{}, "updatedAt": now},
				"$unset": bson.M{"coupon": ""},
			},
		); err != nil {
			return fmt.Errorf("emptying cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return order, nil
}

// Get loads an order. Customers only see their own orders; staff need
// the orders read permission.
func (s *OrderService) Get(ctx context.Context, actorID, orderID primitive.ObjectID) (*model.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.User != actorID {
		if err := s.perms.Require(ctx, actorID, model.ModuleOrders, model.ActionRead); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ListMine returns the actor's own orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, actorID primitive.ObjectID) ([]model.Order, error) {
	return s.list(ctx, bson.M{"user": actorID})
}

// List returns all orders, optionally filtered by status. Requires the
// orders read permission.
func (s *OrderService) List(ctx context.Context, actorID primitive.ObjectID, status string) ([]model.Order, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleOrders, model.ActionRead); err != nil {
		return nil, err
	}
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.list(ctx, filter)
}

// UpdateStatus moves an order along its lifecycle. Requires the orders
// update permission; cancellation goes through Cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, actorID, orderID primitive.ObjectID, status string) (*model.Order, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleOrders, model.ActionUpdate); err != nil {
		return nil, err
	}
	if status == model.OrderStatusCancelled {
		return s.Cancel(ctx, actorID, orderID)
	}
	if !validOrderStatus(status) {
		return nil, apperr.BadRequest("Invalid status")
	}

	var updated model.Order
	err := s.store.Collection(store.ColOrders).FindOneAndUpdate(ctx,
		bson.M{"_id": orderID, "status": bson.M{"$ne": model.OrderStatusCancelled}},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating order status: %w", err))
	}
	return &updated, nil
}

// Cancel cancels an order and restores product stock. Customers may
// cancel their own pending orders; staff need the orders update
// permission.
func (s *OrderService) Cancel(ctx context.Context, actorID, orderID primitive.ObjectID) (*model.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.User != actorID {
		if err := s.perms.Require(ctx, actorID, model.ModuleOrders, model.ActionUpdate); err != nil {
			return nil, err
		}
	} else if order.Status != model.OrderStatusPending {
		return nil, apperr.Conflict("Only pending orders can be cancelled")
	}
	if order.Status == model.OrderStatusCancelled {
		return nil, apperr.Conflict("Order is already cancelled")
	}

	now := time.Now()
	var cancelled model.Order
	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := s.store.Collection(store.ColOrders).FindOneAndUpdate(sessCtx,
			bson.M{"_id": orderID, "status": bson.M{"$ne": model.OrderStatusCancelled}},
			bson.M{"$set": bson.M{
				"status":      model.OrderStatusCancelled,
				"cancelledAt": now,
				"updatedAt":   now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&cancelled)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.Conflict("Order is already cancelled")
		}
		if err != nil {
			return fmt.Errorf("cancelling order: %w", err)
		}

		for _, item := range cancelled.Items {
			if err := s.products.AdjustStock(sessCtx, item.ProductID, item.Quantity); err != nil {
				// The product may have been deleted since the order was
				// placed; restoring stock for it is impossible and not an
				// error.
				if apperr.IsKind(err, apperr.KindNotFound) {
					continue
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &cancelled, nil
}

func (s *OrderService) get(ctx context.Context, orderID primitive.ObjectID) (*model.Order, error) {
	var order model.Order
	err := s.store.Collection(store.ColOrders).FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading order: %w", err))
	}
	return &order, nil
}

func (s *OrderService) list(ctx context.Context, filter bson.M) ([]model.Order, error) {
	cursor, err := s.store.Collection(store.ColOrders).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "placedAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing orders: %w", err))
	}

	var orders []model.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding orders: %w", err))
	}
	return orders, nil
}

func validOrderStatus(status string) bool {
	switch status {
	case model.OrderStatusPending, model.OrderStatusPaid, model.OrderStatusShipped,
		model.OrderStatusDelivered, model.OrderStatusCancelled:
		return true
	}
	return false
}
