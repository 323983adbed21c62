// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
)

func newTestUploader(t *testing.T) *LocalUploader {
	t.Helper()
	u, err := NewLocalUploader(t.TempDir(), "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalUploader() error = %v", err)
	}
	return u
}

func TestStoreAndRemove(t *testing.T) {
	u := newTestUploader(t)

	content := "hello attachment"
	att, err := u.Store("report.txt", int64(len(content)), strings.NewReader(content))
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if att.FileName != "report.txt" {
		t.Errorf("FileName = %q", att.FileName)
	}
	if att.FileSize != int64(len(content)) {
		t.Errorf("FileSize = %d, want %d", att.FileSize, len(content))
	}
	if !strings.HasPrefix(att.URL, "/uploads/") {
		t.Errorf("URL = %q, want /uploads/ prefix", att.URL)
	}
	if !strings.HasSuffix(att.PublicID, ".txt") {
		t.Errorf("PublicID = %q, want .txt suffix", att.PublicID)
	}

	stored, err := os.ReadFile(filepath.Join(u.dir, att.PublicID))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(stored) != content {
		t.Errorf("stored content = %q", stored)
	}

	if err := u.Remove(att.PublicID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(u.dir, att.PublicID)); !os.IsNotExist(err) {
		t.Error("file still exists after Remove")
	}
}

func TestStoreRejectsDisallowedTypes(t *testing.T) {
	u := newTestUploader(t)

	_, err := u.Store("malware.exe", 10, strings.NewReader("0123456789"))
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("error = %v, want BadRequest", err)
	}
}

func TestStoreRejectsOversize(t *testing.T) {
	u := newTestUploader(t)

	_, err := u.Store("big.txt", MaxFileSize+1, strings.NewReader("x"))
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("error = %v, want BadRequest", err)
	}
}

func TestRemoveRejectsPathEscape(t *testing.T) {
	u := newTestUploader(t)

	if err := u.Remove("../../etc/passwd"); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("error = %v, want BadRequest", err)
	}
	if err := u.Remove(""); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Errorf("empty id: error = %v, want BadRequest", err)
	}
}

func TestRemoveMissingFileIsNoError(t *testing.T) {
	u := newTestUploader(t)

	if err := u.Remove("nonexistent.txt"); err != nil {
		t.Errorf("Remove(missing) error = %v, want nil", err)
	}
}
