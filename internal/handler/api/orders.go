// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
)

type updateOrderRequest struct {
	Status string `json:"status"`
}

// PlaceOrder converts the caller's cart into an order, decrementing
// stock and recording any coupon redemption atomically.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	order, err := h.orders.Place(r.Context(), actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, order)
}

// ListMyOrders returns the caller's own orders.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	orders, err := h.orders.ListMine(r.Context(), actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, orders, &Meta{Total: len(orders)})
}

// ListOrders returns all orders, filtered by ?status=. Requires the
// orders read permission.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	orders, err := h.orders.List(r.Context(), actorID, r.URL.Query().Get("status"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, orders, &Meta{Total: len(orders)})
}

// GetOrder returns a single order, visible to its owner or staff with
// the orders read permission.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	orderID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	order, err := h.orders.Get(r.Context(), actorID, orderID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, order, nil)
}

// UpdateOrderStatus moves an order through its lifecycle. A cancelled
// status routes through the cancellation path, which restores stock.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	orderID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req updateOrderRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), actorID, orderID, req.Status)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, order, nil)
}

// CancelOrder cancels an order and restores its stock. Customers may
// cancel their own pending orders only.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	orderID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	order, err := h.orders.Cancel(r.Context(), actorID, orderID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, order, nil)
}
