// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrResponseTooLarge is returned when a body exceeds the read limit.
	ErrResponseTooLarge = errors.New("api: response exceeded maximum size")

	// ErrInvalidArgument is returned before any request is made when a
	// required identifier or field is empty.
	ErrInvalidArgument = errors.New("api: invalid argument")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("api: HTTP %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.Status, body)
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsServerError reports whether err is a 5xx from the backend.
func IsServerError(err error) bool {
	code := StatusCode(err)
	return code >= 500 && code < 600
}

// IsNotImplemented reports whether the backend rejected the request as not
// implemented, as it does for unsupported export formats.
func IsNotImplemented(err error) bool {
	return StatusCode(err) == http.StatusNotImplemented
}
