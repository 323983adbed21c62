// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST handlers for the admin backend.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/middleware"
	"github.com/nimbuswork/storeadmin-go/internal/service"
	"github.com/nimbuswork/storeadmin-go/internal/upload"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	users         *service.UserService
	roles         *service.RoleService
	blogs         *service.BlogService
	blogCats      *service.CategoryService
	products      *service.ProductService
	productCats   *service.CategoryService
	caseStudies   *service.CaseStudyService
	caseStudyCats *service.CategoryService
	services      *service.ServicePageService
	tickets       *service.TicketService
	coupons       *service.CouponService
	carts         *service.CartService
	orders        *service.OrderService
	uploader      upload.Uploader
	logger        *slog.Logger
}

// Deps bundles the service dependencies for NewHandler.
type Deps struct {
	Users         *service.UserService
	Roles         *service.RoleService
	Blogs         *service.BlogService
	BlogCats      *service.CategoryService
	Products      *service.ProductService
	ProductCats   *service.CategoryService
	CaseStudies   *service.CaseStudyService
	CaseStudyCats *service.CategoryService
	Services      *service.ServicePageService
	Tickets       *service.TicketService
	Coupons       *service.CouponService
	Carts         *service.CartService
	Orders        *service.OrderService
	Uploader      upload.Uploader
	Logger        *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		users:         d.Users,
		roles:         d.Roles,
		blogs:         d.Blogs,
		blogCats:      d.BlogCats,
		products:      d.Products,
		productCats:   d.ProductCats,
		caseStudies:   d.CaseStudies,
		caseStudyCats: d.CaseStudyCats,
		services:      d.Services,
		tickets:       d.Tickets,
		coupons:       d.Coupons,
		carts:         d.Carts,
		orders:        d.Orders,
		uploader:      d.Uploader,
		logger:        d.Logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeAppError maps a domain error onto the wire. Internal errors are
// logged with their cause but reported opaquely.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, appErr.Status(), appErr.Code(), "Something went wrong")
		return
	}
	WriteError(w, appErr.Status(), appErr.Code(), appErr.Message)
}

// decode parses the JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	return nil
}

// idParam parses the {id} URL parameter as an ObjectID.
func idParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("Invalid id")
	}
	return id, nil
}

// errInvalidID is the shared malformed-ObjectID error.
var errInvalidID = apperr.BadRequest("Invalid id")

// optionalID parses a hex ObjectID reference; the empty string means
// "clear the reference" and maps to nil.
func optionalID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, errInvalidID
	}
	return &id, nil
}

// actor pulls the authenticated user's id out of the request context.
func actor(r *http.Request) (primitive.ObjectID, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return primitive.NilObjectID, errors.New("no authenticated user in context")
	}
	return id, nil
}
