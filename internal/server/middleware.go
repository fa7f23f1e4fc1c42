package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/lazypower/decisionos/internal/auth"
)

const (
	deviceHeader = "X-Device-ID"
	deviceCookie = "decisionos_device"
	maxDeviceLen = 128
)

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// requireEngine rejects every request with 503 when no model is configured.
func (s *Server) requireEngine(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.engine == nil {
			writeError(w, http.StatusServiceUnavailable, codeNotConfigured, msgNotConfigured)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// session resolves the caller's identity. A bearer token must verify; a
// request without one is anonymous and keyed by its device id.
func (s *Server) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess auth.Session

		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid session token.")
			return
		}
		if token != "" {
			if s.auth == nil {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "Sign-in is not enabled.")
				return
			}
			account, err := s.auth.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid session token.")
				return
			}
			sess.AccountID = account
		}
		sess.DeviceID = deviceID(w, r)

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

// deviceID returns the caller's device id from the header or cookie, minting
// and setting a cookie when neither carries a usable value.
func deviceID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(deviceHeader)); validDeviceID(id) {
		return id
	}
	if c, err := r.Cookie(deviceCookie); err == nil && validDeviceID(c.Value) {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     deviceCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func validDeviceID(id string) bool {
	if id == "" || len(id) > maxDeviceLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
