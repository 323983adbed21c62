// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/service"
)

type createRoleRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Status      *bool                    `json:"status"`
	Permissions []model.ModulePermission `json:"permissions"`
}

type updateRoleRequest struct {
	Name        *string                   `json:"name"`
	Description *string                   `json:"description"`
	Status      *bool                     `json:"status"`
	Permissions *[]model.ModulePermission `json:"permissions"`
}

// ListRoles returns all roles.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	roles, err := h.roles.List(r.Context(), actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, roles, &Meta{Total: len(roles)})
}

// GetRole returns a single role.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	roleID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	role, err := h.roles.Get(r.Context(), actorID, roleID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, role, nil)
}

// CreateRole creates a role.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req createRoleRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	role, err := h.roles.Create(r.Context(), actorID, service.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, role)
}

// UpdateRole patches a role and synchronously invalidates its cached
// permission grant.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	roleID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req updateRoleRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	role, err := h.roles.Update(r.Context(), actorID, roleID, service.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, role, nil)
}

// DeleteRole removes a role, detaching its users.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	roleID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if _, err := h.roles.Delete(r.Context(), actorID, roleID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// DuplicateRole copies a role under a probed unique name.
func (h *Handler) DuplicateRole(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	roleID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	role, err := h.roles.Duplicate(r.Context(), actorID, roleID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, role)
}
