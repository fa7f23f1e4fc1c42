package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/decisionos/internal/auth"
	"github.com/lazypower/decisionos/internal/decision"
	"github.com/lazypower/decisionos/internal/engine"
	"github.com/lazypower/decisionos/internal/localstore"
	"github.com/lazypower/decisionos/internal/logging"
	"github.com/lazypower/decisionos/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server is the decisionos HTTP API server.
type Server struct {
	db      *store.DB
	local   *localstore.Store
	engine  *engine.Engine
	auth    *auth.Authenticator
	repo    *decision.Repository
	log     *logging.Logger
	router  chi.Router
	version string
	started time.Time
}

// Option configures optional collaborators.
type Option func(*Server)

// WithEngine enables the model-backed endpoints and the profile refresh
// after account-scoped creates.
func WithEngine(e *engine.Engine) Option {
	return func(s *Server) { s.engine = e }
}

// WithLocalStore enables anonymous, device-scoped journals.
func WithLocalStore(ls *localstore.Store) Option {
	return func(s *Server) { s.local = ls }
}

// WithAuthenticator enables bearer session tokens.
func WithAuthenticator(a *auth.Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a new Server with the given database and version string.
func New(db *store.DB, version string, opts ...Option) *Server {
	s := &Server{
		db:      db,
		log:     logging.Nop(),
		version: version,
		started: time.Now(),
	}
	for _, o := range opts {
		o(s)
	}

	var repoOpts []decision.Option
	if s.local != nil {
		repoOpts = append(repoOpts, decision.WithLocal(s.local.Device))
	}
	if s.engine != nil {
		repoOpts = append(repoOpts, decision.WithProfileRefresher(s.engine))
	}
	s.repo = decision.NewRepository(db.AccountDecisions, s.log, repoOpts...)

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.session)

			r.Get("/decisions", s.handleListDecisions)
			r.Post("/decisions", s.handleCreateDecision)
			r.Get("/decisions/{id}", s.handleGetDecision)
			r.Patch("/decisions/{id}", s.handleUpdateDecision)
			r.Delete("/decisions/{id}", s.handleDeleteDecision)
		})

		// Model-backed routes report a missing model before anything else.
		r.Group(func(r chi.Router) {
			r.Use(s.requireEngine)
			r.Use(s.session)

			r.Post("/advice/{template}", s.handleAdvice)
			r.Get("/insights", s.handleInsights)
			r.Post("/user-profile", s.handleUserProfile)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      s.db.Ping(ctx) == nil,
		"db_path": s.db.Path,
		"local":   s.local != nil && s.local.Ping(ctx) == nil,
		"llm":     s.engine != nil,
	}
	writeJSON(w, http.StatusOK, body)
}
