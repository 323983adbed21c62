// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuswork/storeadmin-go/internal/model"
)

func TestDefaultRoles(t *testing.T) {
	byName := make(map[string]model.Role, len(defaultRoles))
	for _, role := range defaultRoles {
		byName[role.Name] = role
	}
	require.Len(t, byName, len(defaultRoles), "role names must be unique")

	customer, ok := byName["customer"]
	require.True(t, ok, "customer role must be seeded")
	assert.Empty(t, customer.Permissions, "customers get no module grants")
	assert.True(t, customer.Status)

	support, ok := byName["support"]
	require.True(t, ok, "support role must be seeded")
	assert.True(t, hasAction(support, model.ModuleTickets, model.ActionUpdate))
	assert.False(t, hasAction(support, model.ModuleTickets, model.ActionDelete),
		"support must not delete tickets by default")
	assert.True(t, hasAction(support, model.ModuleOrders, model.ActionRead))

	editor, ok := byName["editor"]
	require.True(t, ok, "editor role must be seeded")
	for _, mod := range []string{model.ModuleBlogs, model.ModuleCaseStudies, model.ModuleServices} {
		assert.True(t, hasAction(editor, mod, model.ActionDelete), "editor needs full control of %s", mod)
	}
	assert.False(t, hasAction(editor, model.ModuleUsers, model.ActionRead),
		"editor must not see accounts")
}

func hasAction(role model.Role, mod string, action model.Action) bool {
	for _, p := range role.Permissions {
		if p.Module != mod {
			continue
		}
		for _, a := range p.Actions {
			if a == action {
				return true
			}
		}
	}
	return false
}
