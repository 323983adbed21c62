// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package upload stores ticket attachments and content images. The
// Uploader interface keeps handlers independent of where files land;
// LocalUploader writes to a directory served as static files.
package upload

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/model"
)

// MaxFileSize caps uploads at 10 MiB.
const MaxFileSize = 10 << 20

// allowedExtensions lists the file types accepted as attachments.
var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".pdf": true, ".txt": true, ".csv": true, ".log": true,
}

// Uploader stores files and returns attachment references.
type Uploader interface {
	// Store saves the file content and returns its attachment record.
	Store(fileName string, size int64, content io.Reader) (*model.Attachment, error)
	// Remove deletes a stored file by its public id.
	Remove(publicID string) error
}

// LocalUploader stores files on the local filesystem.
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader creates a LocalUploader rooted at dir; baseURL is
// the public path prefix the directory is served under.
func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Store implements Uploader.
func (u *LocalUploader) Store(fileName string, size int64, content io.Reader) (*model.Attachment, error) {
	if size > MaxFileSize {
		return nil, apperr.BadRequest("File is too large")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return nil, apperr.BadRequest("File type is not allowed")
	}

	publicID := uuid.NewString() + ext
	path := filepath.Join(u.dir, publicID)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing upload: %w", err)
	}
	if written > MaxFileSize {
		os.Remove(path)
		return nil, apperr.BadRequest("File is too large")
	}

	return &model.Attachment{
		URL:        u.baseURL + "/" + publicID,
		PublicID:   publicID,
		FileName:   filepath.Base(fileName),
		FileType:   mime.TypeByExtension(ext),
		FileSize:   written,
		UploadedAt: time.Now(),
	}, nil
}

// Remove implements Uploader.
func (u *LocalUploader) Remove(publicID string) error {
	// Reject anything that could escape the uploads directory.
	if publicID == "" || publicID != filepath.Base(publicID) {
		return apperr.BadRequest("Invalid file id")
	}
	if err := os.Remove(filepath.Join(u.dir, publicID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing upload: %w", err)
	}
	return nil
}
