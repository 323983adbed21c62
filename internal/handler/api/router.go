// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nimbuswork/storeadmin-go/internal/auth"
	"github.com/nimbuswork/storeadmin-go/internal/middleware"
)

// RouterOptions configures the middleware wrapped around the API.
type RouterOptions struct {
	Tokens        *auth.TokenIssuer
	LoginLimiter  *middleware.LoginLimiter
	IsDevelopment bool
}

// Router builds the chi router for the API. Login, refresh and
// registration are public (rate limited); everything else requires a
// bearer token.
func (h *Handler) Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(opts.IsDevelopment))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.With(opts.LoginLimiter.Middleware).Post("/login", h.Login)
			r.With(opts.LoginLimiter.Middleware).Post("/register", h.Register)
			r.Post("/refresh", h.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(opts.Tokens))
				r.Get("/me", h.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(opts.Tokens))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Patch("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})

			r.Route("/roles", func(r chi.Router) {
				r.Get("/", h.ListRoles)
				r.Post("/", h.CreateRole)
				r.Get("/{id}", h.GetRole)
				r.Patch("/{id}", h.UpdateRole)
				r.Delete("/{id}", h.DeleteRole)
				r.Post("/{id}/duplicate", h.DuplicateRole)
			})

			r.Route("/blogs", func(r chi.Router) {
				r.Get("/", h.ListBlogs)
				r.Post("/", h.CreateBlog)
				r.Get("/{id}", h.GetBlog)
				r.Patch("/{id}", h.UpdateBlog)
				r.Delete("/{id}", h.DeleteBlog)
			})
			mountCategories(r, "/blog-categories", categoryHandlers{h: h, tree: h.blogCats})

			r.Route("/case-studies", func(r chi.Router) {
				r.Get("/", h.ListCaseStudies)
				r.Post("/", h.CreateCaseStudy)
				r.Get("/{id}", h.GetCaseStudy)
				r.Patch("/{id}", h.UpdateCaseStudy)
				r.Delete("/{id}", h.DeleteCaseStudy)
			})
			mountCategories(r, "/case-study-categories", categoryHandlers{h: h, tree: h.caseStudyCats})

			r.Route("/services", func(r chi.Router) {
				r.Get("/", h.ListServices)
				r.Post("/", h.CreateService)
				r.Get("/{id}", h.GetService)
				r.Patch("/{id}", h.UpdateService)
				r.Delete("/{id}", h.DeleteService)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ListProducts)
				r.Post("/", h.CreateProduct)
				r.Get("/{id}", h.GetProduct)
				r.Patch("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
				r.Post("/{id}/duplicate", h.DuplicateProduct)
			})
			mountCategories(r, "/product-categories", categoryHandlers{h: h, tree: h.productCats})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", h.ListCoupons)
				r.Post("/", h.CreateCoupon)
				r.Get("/{id}", h.GetCoupon)
				r.Patch("/{id}", h.UpdateCoupon)
				r.Delete("/{id}", h.DeleteCoupon)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Patch("/items/{id}", h.UpdateCartItem)
				r.Delete("/items/{id}", h.RemoveCartItem)
				r.Post("/coupon", h.ApplyCartCoupon)
				r.Delete("/coupon", h.RemoveCartCoupon)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.Post("/", h.PlaceOrder)
				r.Get("/mine", h.ListMyOrders)
				r.Get("/{id}", h.GetOrder)
				r.Patch("/{id}", h.UpdateOrderStatus)
				r.Post("/{id}/cancel", h.CancelOrder)
			})

			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", h.ListTickets)
				r.Post("/", h.CreateTicket)
				r.Get("/stats", h.TicketStats)
				r.Get("/{id}", h.GetTicket)
				r.Patch("/{id}", h.UpdateTicket)
				r.Delete("/{id}", h.DeleteTicket)
				r.Post("/{id}/messages", h.AddTicketMessage)
				r.Post("/{id}/read", h.MarkTicketRead)
			})

			r.Post("/uploads", h.UploadAttachment)
		})
	})

	return r
}

// mountCategories wires the shared category handler set under a path.
func mountCategories(r chi.Router, path string, c categoryHandlers) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", c.list)
		r.Post("/", c.create)
		r.Get("/{id}", c.get)
		r.Patch("/{id}", c.update)
		r.Delete("/{id}", c.delete)
	})
}
