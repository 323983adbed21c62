// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
)

type cartItemRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

// GetCart returns the caller's cart, creating an empty one on first
// access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	cart, err := h.carts.Get(r.Context(), actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, cart, nil)
}

// AddCartItem adds a product line to the caller's cart, merging
// quantities for a product already present.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req cartItemRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	productID, err := optionalID(req.Product)
	if err != nil || productID == nil {
		h.writeAppError(w, r, errInvalidID)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), actorID, *productID, req.Quantity)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, cart, nil)
}

// UpdateCartItem sets the quantity of a cart line; zero removes it.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	productID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	cart, err := h.carts.SetItemQuantity(r.Context(), actorID, productID, req.Quantity)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, cart, nil)
}

// RemoveCartItem removes a product line from the caller's cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	productID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), actorID, productID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, cart, nil)
}

// ApplyCartCoupon attaches a coupon to the caller's cart after
// checking it is redeemable against the cart contents.
func (h *Handler) ApplyCartCoupon(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req applyCouponRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	cart, err := h.carts.ApplyCoupon(r.Context(), actorID, req.Code)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, cart, nil)
}

// RemoveCartCoupon detaches the coupon from the caller's cart.
func (h *Handler) RemoveCartCoupon(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	cart, err := h.carts.RemoveCoupon(r.Context(), actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, cart, nil)
}

// ClearCart empties the caller's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.carts.Clear(r.Context(), actorID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}
