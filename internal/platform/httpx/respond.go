// Package httpx provides HTTP response utilities shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details for generic errors.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// DenialBody is the response shape for authentication and authorization
// failures on API paths. The field layout is stable and consumed by the
// front end, do not reorder.
type DenialBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{Title: title, Status: status, Detail: detail})
}

// AuthenticationRequired sends the 401 body used across all API guards.
func AuthenticationRequired(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Please login to access this resource."
	}
	JSON(w, http.StatusUnauthorized, DenialBody{Error: "Authentication required", Message: message})
}

// AccessDenied sends the 403 body used across all API guards.
func AccessDenied(w http.ResponseWriter, message string) {
	if message == "" {
		message = "You do not have permission to access this resource."
	}
	JSON(w, http.StatusForbidden, DenialBody{Error: "Access Denied", Message: message})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
