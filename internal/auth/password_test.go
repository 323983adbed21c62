// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q, want argon2id format", hash)
	}

	ok, err := CheckPassword("s3cret-password", hash)
	if err != nil {
		t.Fatalf("CheckPassword() error = %v", err)
	}
	if !ok {
		t.Error("CheckPassword() = false for correct password")
	}

	ok, err = CheckPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("CheckPassword() error = %v", err)
	}
	if ok {
		t.Error("CheckPassword() = true for wrong password")
	}
}

func TestCheckPasswordRejectsMalformedHash(t *testing.T) {
	if _, err := CheckPassword("pw", "not-a-hash"); err == nil {
		t.Error("CheckPassword() should fail on malformed hash")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef")
	userID := primitive.NewObjectID()

	token, err := issuer.IssueAccess(userID)
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != userID {
		t.Errorf("Verify() = %s, want %s", got.Hex(), userID.Hex())
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef")
	other := NewTokenIssuer("fedcba9876543210fedcba9876543210")

	token, err := issuer.IssueAccess(primitive.NewObjectID())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Error("Verify() should reject token signed with different secret")
	}
}
