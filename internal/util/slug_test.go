// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Café au Lait", "cafe-au-lait"},
		{"Product  --  Launch!", "product-launch"},
		{"  trimmed  ", "trimmed"},
		{"UPPER case", "upper-case"},
		{"2024 Holiday Sale", "2024-holiday-sale"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSlugFrom(t *testing.T) {
	if got := SlugFrom("Custom Slug", "Ignored Name"); got != "custom-slug" {
		t.Errorf("SlugFrom with explicit slug = %q, want %q", got, "custom-slug")
	}
	if got := SlugFrom("", "Fallback Name"); got != "fallback-name" {
		t.Errorf("SlugFrom without slug = %q, want %q", got, "fallback-name")
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"hello", "hello-world", "a1-b2"}
	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "Hello", "hello world", "-lead", "trail-", "a--b"}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = true, want false", s)
		}
	}
}
