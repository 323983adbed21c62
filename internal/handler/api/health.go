// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/nimbuswork/storeadmin-go/internal/version"
)

type healthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
}

// Health reports liveness and the build version. Unauthenticated, for
// load balancers and uptime checks.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version.Get()})
}
