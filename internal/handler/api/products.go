// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/service"
)

type productRequest struct {
	Name        *string   `json:"name"`
	Slug        *string   `json:"slug"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Stock       *int      `json:"stock"`
	Images      *[]string `json:"images"`
	Status      *string   `json:"status"`
	Category    *string   `json:"category"` // hex id, or "" to clear
	SubCategory *[]string `json:"subCategory"`
}

func (req productRequest) toInput() (service.ProductInput, error) {
	in := service.ProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      req.Images,
		Status:      req.Status,
	}
	if req.Category != nil {
		category, err := optionalID(*req.Category)
		if err != nil {
			return in, err
		}
		in.Category = &category
	}
	if req.SubCategory != nil {
		subs := make([]primitive.ObjectID, 0, len(*req.SubCategory))
		for _, hex := range *req.SubCategory {
			sub, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				return in, errInvalidID
			}
			subs = append(subs, sub)
		}
		in.SubCategory = &subs
	}
	return in, nil
}

// ListProducts returns products, filtered by ?status= and ?category=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	category, err := optionalID(r.URL.Query().Get("category"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	products, err := h.products.List(r.Context(), actorID, r.URL.Query().Get("status"), category)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, products, &Meta{Total: len(products)})
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
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

	product, err := h.products.Get(r.Context(), actorID, productID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, product, nil)
}

// CreateProduct creates a product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req productRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	product, err := h.products.Create(r.Context(), actorID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, product)
}

// UpdateProduct patches a product, relinking its categories when they
// change.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
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

	var req productRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	product, err := h.products.Update(r.Context(), actorID, productID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, product, nil)
}

// DeleteProduct removes a product and detaches it from its categories.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
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

	if err := h.products.Delete(r.Context(), actorID, productID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// DuplicateProduct copies a product as a draft under a probed unique
// name.
func (h *Handler) DuplicateProduct(w http.ResponseWriter, r *http.Request) {
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

	product, err := h.products.Duplicate(r.Context(), actorID, productID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, product)
}
