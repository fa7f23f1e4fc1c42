package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lazypower/decisionos/internal/advice"
	"github.com/lazypower/decisionos/internal/decision"
	"github.com/lazypower/decisionos/internal/llm"
)

// Error codes carried in the "code" field of every error body.
const (
	codeUnauthorized   = "unauthorized"
	codeInvalidRequest = "invalid_request"
	codeMissingFields  = "missing_required_fields"
	codeNotFound       = "not_found"
	codeNotConfigured  = "service_not_configured"
	codeUpstream       = "upstream_unavailable"
	codePersistence    = "persistence_failure"
	codeInternal       = "internal_error"
)

const msgNotConfigured = "AI service is not configured."

type errorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// fail maps a domain error onto its HTTP status and error code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var missing *advice.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   missing.Message(),
			Code:    codeMissingFields,
			Missing: missing.Keys(),
		})
		return
	case errors.Is(err, decision.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Unauthorized")
		return
	case errors.Is(err, llm.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, codeNotConfigured, msgNotConfigured)
		return
	}

	status, code := http.StatusInternalServerError, codeInternal
	switch {
	case errors.Is(err, llm.ErrUpstream):
		status, code = http.StatusBadGateway, codeUpstream
	case errors.Is(err, decision.ErrPersistence):
		code = codePersistence
	}
	s.log.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"code", code,
		"error", err,
	)
	writeError(w, status, code, err.Error())
}

// decodeBody reads a JSON request body into v. An empty body is invalid.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid json"
		if errors.Is(err, io.EOF) {
			msg = "request body required"
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequest, msg)
		return false
	}
	return true
}
