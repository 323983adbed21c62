// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/nimbuswork/storeadmin-go/internal/service"
)

type createCategoryRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Status      *bool   `json:"status"`
	Parent      *string `json:"parentCategory"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Status      *bool   `json:"status"`
	Parent      *string `json:"parentCategory"` // hex id, or "" to detach
}

// categoryHandlers builds the handler set for one category tree. The
// same handlers back the blog, product and case study category routes.
type categoryHandlers struct {
	h    *Handler
	tree *service.CategoryService
}

func (c categoryHandlers) list(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}

	categories, err := c.tree.List(r.Context(), actorID)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, categories, &Meta{Total: len(categories)})
}

func (c categoryHandlers) get(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}
	categoryID, err := idParam(r)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}

	category, err := c.tree.Get(r.Context(), actorID, categoryID)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, category, nil)
}

func (c categoryHandlers) create(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}

	var req createCategoryRequest
	if err := decode(r, &req); err != nil {
		c.h.writeAppError(w, r, err)
		return
	}

	in := service.CreateCategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.Parent != nil && *req.Parent != "" {
		parent, err := optionalID(*req.Parent)
		if err != nil {
			c.h.writeAppError(w, r, err)
			return
		}
		in.Parent = parent
	}

	category, err := c.tree.Create(r.Context(), actorID, in)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, category)
}

func (c categoryHandlers) update(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}
	categoryID, err := idParam(r)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}

	var req updateCategoryRequest
	if err := decode(r, &req); err != nil {
		c.h.writeAppError(w, r, err)
		return
	}

	in := service.UpdateCategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.Parent != nil {
		parent, err := optionalID(*req.Parent)
		if err != nil {
			c.h.writeAppError(w, r, err)
			return
		}
		in.Parent = &parent
	}

	category, err := c.tree.Update(r.Context(), actorID, categoryID, in)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, category, nil)
}

func (c categoryHandlers) delete(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}
	categoryID, err := idParam(r)
	if err != nil {
		c.h.writeAppError(w, r, err)
		return
	}

	if _, err := c.tree.Delete(r.Context(), actorID, categoryID); err != nil {
		c.h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}
