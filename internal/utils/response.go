package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// Messages returned to the browser
const (
	MessageUnauthorized = "No autorizado"
	MessageInternal     = "Error interno del servidor"
	MessageRateLimited  = "Demasiadas solicitudes, intente más tarde"
)

// MessageResponse is the body of every error the portal itself produces
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondWithJSON sends payload as JSON with the given status code
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// RespondWithMessage sends {"message": message}
func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, MessageResponse{Message: message})
}

// Common error responses
func UnauthorizedError(w http.ResponseWriter) {
	RespondWithMessage(w, http.StatusUnauthorized, MessageUnauthorized)
}

func InternalServerError(w http.ResponseWriter) {
	RespondWithMessage(w, http.StatusInternalServerError, MessageInternal)
}

func RateLimitError(w http.ResponseWriter) {
	RespondWithMessage(w, http.StatusTooManyRequests, MessageRateLimited)
}

// NoStore marks a response as uncacheable
func NoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
