// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/service"
)

// couponRequest maps the wire payload onto the service input. The
// optional limits use zero sentinels because JSON null cannot be told
// apart from an absent field: 0 clears a limit, "" clears the expiry.
type couponRequest struct {
	Code              *string   `json:"code"`
	ApplicableOn      *string   `json:"applicableOn"`
	CouponType        *string   `json:"couponType"`
	DiscountType      *string   `json:"discountType"`
	DiscountValue     *float64  `json:"discountValue"`
	MinOrderAmount    *float64  `json:"minOrderAmount"`
	MaxDiscountAmount *float64  `json:"maxDiscountAmount"`
	SpecificProducts  *[]string `json:"specificProducts"`
	ProductCategories *[]string `json:"productCategories"`
	MinQuantity       *int      `json:"minQuantity"`
	MaxQuantity       *int      `json:"maxQuantity"`
	UsageLimitPerUser *int      `json:"usageLimitPerUser"`
	TotalUsageLimit   *int      `json:"totalUsageLimit"`
	Status            *string   `json:"status"`
	ExpiresAt         *string   `json:"expiresAt"` // RFC 3339, or "" to clear
}

func (req couponRequest) toInput() (service.CouponInput, error) {
	in := service.CouponInput{
		Code:              req.Code,
		ApplicableOn:      req.ApplicableOn,
		CouponType:        req.CouponType,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MinQuantity:       req.MinQuantity,
		MaxQuantity:       optionalLimit(req.MaxQuantity),
		UsageLimitPerUser: optionalLimit(req.UsageLimitPerUser),
		TotalUsageLimit:   optionalLimit(req.TotalUsageLimit),
		Status:            req.Status,
	}
	if req.ExpiresAt != nil {
		expiry, err := optionalTime(*req.ExpiresAt)
		if err != nil {
			return in, err
		}
		in.ExpiresAt = &expiry
	}
	if req.SpecificProducts != nil {
		ids, err := hexIDs(*req.SpecificProducts)
		if err != nil {
			return in, err
		}
		in.SpecificProducts = &ids
	}
	if req.ProductCategories != nil {
		ids, err := hexIDs(*req.ProductCategories)
		if err != nil {
			return in, err
		}
		in.ProductCategories = &ids
	}
	return in, nil
}

// optionalLimit lifts a zero-sentinel limit into the service's
// two-level pointer form: absent stays untouched, 0 clears the limit.
func optionalLimit(v *int) **int {
	if v == nil {
		return nil
	}
	if *v <= 0 {
		var cleared *int
		return &cleared
	}
	return &v
}

// optionalTime parses an RFC 3339 timestamp; the empty string clears
// the expiry.
func optionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, apperr.BadRequest("Invalid timestamp")
	}
	return &t, nil
}

func hexIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, hex := range hexes {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, errInvalidID
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListCoupons returns all coupons.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	coupons, err := h.coupons.List(r.Context(), actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, coupons, &Meta{Total: len(coupons)})
}

// GetCoupon returns a single coupon.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	couponID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	coupon, err := h.coupons.Get(r.Context(), actorID, couponID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, coupon, nil)
}

// CreateCoupon creates a coupon.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req couponRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	coupon, err := h.coupons.Create(r.Context(), actorID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, coupon)
}

// UpdateCoupon patches a coupon; the merged document is revalidated as
// a whole.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	couponID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req couponRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	coupon, err := h.coupons.Update(r.Context(), actorID, couponID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, coupon, nil)
}

// DeleteCoupon removes a coupon and detaches it from carts.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	couponID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.coupons.Delete(r.Context(), actorID, couponID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}
