package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/decisionos/internal/advice"
	"github.com/lazypower/decisionos/internal/auth"
	"github.com/lazypower/decisionos/internal/decision"
)

// journal resolves the request's journal, writing the error response when
// the caller has no usable backend.
func (s *Server) journal(w http.ResponseWriter, r *http.Request) (*decision.Journal, bool) {
	j, err := s.repo.For(auth.FromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return j, true
}

// --- Decisions ---

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	j, ok := s.journal(w, r)
	if !ok {
		return
	}
	ds, err := j.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"decisions": ds,
		"backend":   j.Mode(),
	})
}

func (s *Server) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	j, ok := s.journal(w, r)
	if !ok {
		return
	}
	var f decision.Fields
	if !decodeBody(w, r, &f) {
		return
	}
	d, err := j.Create(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	j, ok := s.journal(w, r)
	if !ok {
		return
	}
	d, err := j.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "decision not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDecision(w http.ResponseWriter, r *http.Request) {
	j, ok := s.journal(w, r)
	if !ok {
		return
	}
	var p decision.Patch
	if !decodeBody(w, r, &p) {
		return
	}
	d, err := j.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "decision not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDecision(w http.ResponseWriter, r *http.Request) {
	j, ok := s.journal(w, r)
	if !ok {
		return
	}
	if err := j.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Model-backed endpoints ---

// handleAdvice builds the advice prompt for a template and returns the
// model's prose.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "template")
	t, ok := advice.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("unknown template %q", name))
		return
	}

	var body map[string]any
	if !decodeBody(w, r, &body) {
		return
	}

	text, err := s.engine.Advise(r.Context(), t, formFields(body))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"advice": text})
}

// formFields keeps scalar answers as text. Nested values are not answers.
func formFields(body map[string]any) map[string]string {
	fields := make(map[string]string, len(body))
	for k, v := range body {
		switch t := v.(type) {
		case string:
			fields[k] = t
		case float64, bool:
			fields[k] = fmt.Sprint(t)
		}
	}
	return fields
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.accountSession(w, r)
	if !ok {
		return
	}
	out, err := s.engine.Insights(r.Context(), sess.AccountID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.accountSession(w, r)
	if !ok {
		return
	}
	res, err := s.engine.SynthesizeProfile(r.Context(), sess.AccountID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// accountSession gates the account-only model endpoints on a signed-in caller.
func (s *Server) accountSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess := auth.FromContext(r.Context())
	if !sess.Authenticated() {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Unauthorized")
		return auth.Session{}, false
	}
	return sess, true
}
