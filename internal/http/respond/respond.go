package respond

import (
	"encoding/json"
	"log"
	"net/http"
)

// Envelope is the standard API response wrapper used across handlers.
// Status is "success", "pending" (login awaiting the 2FA step), "fail"
// for client errors, or "error" for server errors.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a success response, optionally carrying the session
// token and a data payload.
func Success(w http.ResponseWriter, status int, token string, data any) {
	write(w, status, Envelope{Status: "success", Token: token, Data: data})
}

// Message writes a success response with only a message.
func Message(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Status: "success", Message: message})
}

// Pending marks a login that is awaiting its challenge step.
func Pending(w http.ResponseWriter, message string) {
	write(w, http.StatusOK, Envelope{Status: "pending", Message: message})
}

// Error writes an error response; 4xx map to "fail", 5xx to "error".
func Error(w http.ResponseWriter, status int, message string) {
	kind := "fail"
	if status >= http.StatusInternalServerError {
		kind = "error"
	}
	write(w, status, Envelope{Status: kind, Message: message})
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("respond: encode payload failed: %v", err)
	}
}
