package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON error body shared by every endpoint.
// Errors always carry a message field; an HTML error page must never
// reach the client.
type ErrorResponse struct {
	// Error message
	// example: Something went wrong
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}
