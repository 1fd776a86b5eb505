// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Package models defines the wire types shared by the HTTP API.
package models

import "time"

// APIResponse is the uniform envelope for all API responses.
//
// Success:
//
//	{"status": "success", "data": {...}, "metadata": {...}}
//
// Failure:
//
//	{"status": "error", "error": {"code": "...", "message": "..."}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata *Metadata   `json:"metadata,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response diagnostics.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable error payload. Message is safe to
// show to clients; internal details stay in the server log.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes returned by the API.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeUpstream     = "upstream_error"
	ErrCodeInternal     = "internal_error"
)

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}, queryTime time.Duration) *APIResponse {
	return &APIResponse{
		Status: StatusSuccess,
		Data:   data,
		Metadata: &Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: queryTime.Milliseconds(),
		},
	}
}

// NewErrorResponse wraps an error code and client-safe message.
func NewErrorResponse(code, message string) *APIResponse {
	return &APIResponse{
		Status: StatusError,
		Error:  &APIError{Code: code, Message: message},
	}
}
