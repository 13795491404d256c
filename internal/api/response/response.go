// Package response writes the JSON envelope shared by every endpoint:
// {"success": bool, "data": ..., "error": ..., "meta": ...}.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Response represents a standard API response
type Response struct {
	Success bool  `json:"success"`
	Data    any   `json:"data,omitempty"`
	Error   any   `json:"error,omitempty"`
	Meta    *Meta `json:"meta,omitempty"`
}

// Meta describes the page a list response was cut from
type Meta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Debug().Err(err).Int("status", status).Msg("failed to write response")
	}
}

// JSON sends data with the given status
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Response{Success: status < http.StatusBadRequest, Data: data})
}

// Error sends an error payload with the given status
func Error(w http.ResponseWriter, status int, message any) {
	write(w, status, Response{Error: message})
}

// OK sends a 200 response
func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

// Created sends a 201 response
func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

// NoContent sends a 204 response without a body
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// List sends a page of items. count is len(items) as seen by the caller.
func List(w http.ResponseWriter, items any, count, limit, offset int) {
	write(w, http.StatusOK, Response{
		Success: true,
		Data:    items,
		Meta:    &Meta{Count: count, Limit: limit, Offset: offset},
	})
}

func BadRequest(w http.ResponseWriter, message any)    { Error(w, http.StatusBadRequest, message) }
func Unauthorized(w http.ResponseWriter, message any)  { Error(w, http.StatusUnauthorized, message) }
func Forbidden(w http.ResponseWriter, message any)     { Error(w, http.StatusForbidden, message) }
func NotFound(w http.ResponseWriter, message any)      { Error(w, http.StatusNotFound, message) }
func Conflict(w http.ResponseWriter, message any)      { Error(w, http.StatusConflict, message) }
func InternalError(w http.ResponseWriter, message any) { Error(w, http.StatusInternalServerError, message) }

// Unavailable reports failed dependency checks with a 503
func Unavailable(w http.ResponseWriter, checks any) {
	Error(w, http.StatusServiceUnavailable, checks)
}

// TooManyRequests sends a 429 and tells the client when to retry
func TooManyRequests(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	Error(w, http.StatusTooManyRequests, "rate limit exceeded")
}
