// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"strings"
	"testing"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("SADM_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail without SADM_JWT_SECRET")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("SADM_JWT_SECRET", "too-short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject short secrets")
	}
	if !strings.Contains(err.Error(), "SADM_JWT_SECRET") {
		t.Errorf("error = %v, want mention of SADM_JWT_SECRET", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SADM_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MongoDB != "storeadmin" {
		t.Errorf("MongoDB = %q, want %q", cfg.MongoDB, "storeadmin")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "localhost:8080")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true by default")
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true without SADM_REDIS_URL")
	}
}
