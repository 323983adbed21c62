// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type registerRequest struct {
	Name     string `json:"name"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Contact  string `json:"contact"`
}

// Login verifies credentials and returns the user with a token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	user, tokens, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteSuccess(w, map[string]any{"user": user, "tokens": tokens}, nil)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	tokens, err := h.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteSuccess(w, tokens, nil)
}

// Register is customer self sign-up.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), serviceCreateUserInput(req))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteCreated(w, user)
}

// Me returns the authenticated user's own account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), actorID, actorID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteSuccess(w, user, nil)
}
