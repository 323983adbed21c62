// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apperr defines the domain error taxonomy shared by all
// services and handlers: BadRequest, Forbidden, NotFound, Conflict
// and Internal. Deliberate domain errors pass through to the HTTP
// layer unchanged; anything unexpected is wrapped as Internal with
// the original message preserved for logging.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

// Error kinds, mapped to HTTP status codes by Status.
const (
	KindBadRequest Kind = iota
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// Error is a domain error carrying a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable error code for API responses.
func (e *Error) Code() string {
	switch e.Kind {
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// BadRequest creates a 400-class domain error.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// Forbidden creates a 403-class domain error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound creates a 404-class domain error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict creates a 409-class domain error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal wraps an unexpected error, preserving its message for logs.
func Internal(err error) *Error {
	if err == nil {
		return &Error{Kind: KindInternal, Message: "internal error"}
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		// Domain errors are never downgraded to Internal.
		return appErr
	}
	return &Error{Kind: KindInternal, Message: "internal error", err: err}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// From extracts a domain error from err, wrapping unknown errors as
// Internal so callers always get a well-formed *Error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
