package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazypower/decisionos/internal/auth"
	"github.com/lazypower/decisionos/internal/config"
	"github.com/lazypower/decisionos/internal/engine"
	"github.com/lazypower/decisionos/internal/llm"
	"github.com/lazypower/decisionos/internal/localstore"
	"github.com/lazypower/decisionos/internal/logging"
	"github.com/lazypower/decisionos/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	opts := []server.Option{server.WithLogger(log)}

	// Anonymous journals need Redis. Without it only signed-in accounts work.
	if cfg.Local.RedisURL != "" {
		local, err := localstore.New(cfg.Local.RedisURL, cfg.Local.Namespace, log.With("component", "localstore"))
		if err != nil {
			log.Warn("local store unavailable, anonymous journals disabled", "error", err)
		} else {
			defer local.Close()
			opts = append(opts, server.WithLocalStore(local))
			log.Info("local store ready", "namespace", cfg.Local.Namespace)
		}
	}

	if cfg.Auth.JWTSecret != "" {
		a, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.SessionTTL)
		if err != nil {
			return fmt.Errorf("init authenticator: %w", err)
		}
		opts = append(opts, server.WithAuthenticator(a))
	} else {
		log.Warn("JWT_SECRET not set, sign-in disabled")
	}

	var eng *engine.Engine
	client, err := llm.NewClient(cmd.Context(), cfg.LLM)
	if err != nil {
		log.Warn("LLM not configured, model endpoints disabled", "error", err)
	} else {
		defer llm.Close(client)
		eng = engine.New(db, client, log.With("component", "engine"), cfg.Profile.RefreshTimeout)
		opts = append(opts, server.WithEngine(eng))
		log.Info("llm ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	srv := server.New(db, VersionString(), opts...)
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("decisionos serving", "addr", addr, "db", db.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if eng != nil {
		if err := eng.Wait(ctx); err != nil {
			log.Warn("profile refreshes still running at exit", "error", err)
		}
	}
	return nil
}
