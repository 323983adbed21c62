// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimbuswork/storeadmin-go/internal/service"
)

type createUserRequest struct {
	Name     string  `json:"name"`
	UserName string  `json:"userName"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Contact  string  `json:"contact"`
	Role     *string `json:"role"`
	IsAdmin  bool    `json:"isAdmin"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	UserName *string `json:"userName"`
	Email    *string `json:"email"`
	Contact  *string `json:"contact"`
	Image    *string `json:"image"`
	Password *string `json:"password"`
	Status   *string `json:"status"`
	Role     *string `json:"role"` // hex id, or "" to clear
	IsAdmin  *bool   `json:"isAdmin"`
}

func serviceCreateUserInput(req registerRequest) service.CreateUserInput {
	return service.CreateUserInput{
		Name:     req.Name,
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
		Contact:  req.Contact,
	}
}

// ListUsers returns all accounts.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	users, err := h.users.List(r.Context(), actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, users, &Meta{Total: len(users)})
}

// GetUser returns a single account.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	userID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), actorID, userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, user, nil)
}

// CreateUser creates an account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req createUserRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	in := service.CreateUserInput{
		Name:     req.Name,
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
		Contact:  req.Contact,
		IsAdmin:  req.IsAdmin,
	}
	if req.Role != nil && *req.Role != "" {
		roleID, err := primitive.ObjectIDFromHex(*req.Role)
		if err != nil {
			h.writeAppError(w, r, errInvalidID)
			return
		}
		in.Role = &roleID
	}

	user, err := h.users.Create(r.Context(), actorID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, user)
}

// UpdateUser patches an account.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	userID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req updateUserRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	in := service.UpdateUserInput{
		Name:     req.Name,
		UserName: req.UserName,
		Email:    req.Email,
		Contact:  req.Contact,
		Image:    req.Image,
		Password: req.Password,
		Status:   req.Status,
		IsAdmin:  req.IsAdmin,
	}
	if req.Role != nil {
		role, err := optionalID(*req.Role)
		if err != nil {
			h.writeAppError(w, r, err)
			return
		}
		in.Role = &role
	}

	user, err := h.users.Update(r.Context(), actorID, userID, in)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, user, nil)
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	userID, err := idParam(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.users.Delete(r.Context(), actorID, userID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteNoContent(w)
}
