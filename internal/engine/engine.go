// Package engine runs the model-backed operations over a user's decisions:
// advice, profile synthesis and insights.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lazypower/decisionos/internal/advice"
	"github.com/lazypower/decisionos/internal/llm"
	"github.com/lazypower/decisionos/internal/logging"
	"github.com/lazypower/decisionos/internal/store"
)

// DefaultRefreshTimeout bounds a background profile refresh.
const DefaultRefreshTimeout = 8 * time.Second

// NoAdvice is returned when the model produced no text.
const NoAdvice = "No response generated. Please try again."

// Engine orchestrates advice generation, profile synthesis and insights.
type Engine struct {
	DB  *store.DB
	LLM llm.Client

	log            *logging.Logger
	refreshTimeout time.Duration
	wg             sync.WaitGroup
}

// New creates a new Engine. A non-positive refreshTimeout selects
// DefaultRefreshTimeout.
func New(db *store.DB, client llm.Client, log *logging.Logger, refreshTimeout time.Duration) *Engine {
	if refreshTimeout <= 0 {
		refreshTimeout = DefaultRefreshTimeout
	}
	return &Engine{
		DB:             db,
		LLM:            client,
		log:            log,
		refreshTimeout: refreshTimeout,
	}
}

// Advise builds the template prompt and returns the model's prose advice.
// Validation failures return *advice.MissingFieldsError before any model call.
func (e *Engine) Advise(ctx context.Context, t *advice.Template, fields map[string]string) (string, error) {
	prompt, err := advice.Build(t, fields)
	if err != nil {
		return "", err
	}

	resp, err := e.complete(ctx, llm.Request{
		Instructions: prompt.Instructions,
		Input:        prompt.Input,
		MaxTokens:    2048,
		WebSearch:    true,
	})
	if err != nil {
		return "", err
	}
	e.log.Debug("advice generated", "template", t.Name, "provider", resp.Provider, "tokens", resp.TokensUsed)
	return llm.Prose(resp.Content, NoAdvice), nil
}

// RefreshProfileAsync recomputes the account's profile in a detached
// goroutine. It returns immediately; the outcome is only logged.
func (e *Engine) RefreshProfileAsync(accountID string) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.refreshTimeout)
		defer cancel()

		res, err := e.SynthesizeProfile(ctx, accountID)
		if err != nil {
			e.log.Warn("profile refresh failed", "account", accountID, "error", err)
			return
		}
		e.log.Debug("profile refresh done", "account", accountID, "updated", res.Updated, "decisions", res.DecisionsCount)
	}()
}

// Wait blocks until in-flight refreshes finish or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp, err := e.LLM.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrUpstream, err)
	}
	if resp == nil {
		resp = &llm.Response{}
	}
	return resp, nil
}
