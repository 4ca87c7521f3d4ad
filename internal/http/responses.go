package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/ride-share/internal/auth"
)

type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, retryable bool) {
	writeJSON(w, status, errorBody{Error: msg, Retryable: retryable})
}

// writeAuthError maps auth failures onto their fixed user-facing
// messages; raw provider errors never reach the client.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	if aerr, ok := authErrorOf(err); ok {
		writeError(w, http.StatusUnauthorized, aerr.UserMessage(), false)
		return
	}
	s.logger.Error("auth failure", "error", err)
	writeError(w, http.StatusServiceUnavailable, "Something went wrong. Please try again.", true)
}

func authErrorOf(err error) (*auth.AuthError, bool) {
	var aerr *auth.AuthError
	if errors.As(err, &aerr) {
		return aerr, true
	}
	return nil, false
}
