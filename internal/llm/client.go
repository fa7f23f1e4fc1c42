package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/lazypower/decisionos/internal/config"
)

var (
	// ErrNotConfigured means no provider credentials are available.
	ErrNotConfigured = errors.New("language model not configured")
	// ErrUpstream marks a failed call to the completion service.
	ErrUpstream = errors.New("completion service unavailable")
)

// Client is the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is one completion call. Instructions carries the system prompt,
// Input the user content.
type Request struct {
	Instructions string
	Input        string
	MaxTokens    int
	// WebSearch asks the provider to ground the answer with web search when
	// it supports it. Providers without search ignore it.
	WebSearch bool
}

// Response holds the result of an LLM completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// NewClient creates an LLM client based on the config provider setting.
// An empty provider or a missing key yields ErrNotConfigured.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "":
		return nil, ErrNotConfigured
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("%w: openai provider requires OPENAI_API_KEY", ErrNotConfigured)
		}
		return NewOpenAI(cfg.OpenAIKey, orDefault(cfg.Model, "gpt-4o-mini")), nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("%w: anthropic provider requires ANTHROPIC_API_KEY", ErrNotConfigured)
		}
		return NewAnthropic(cfg.AnthropicKey, orDefault(cfg.Model, "claude-haiku-4-5-20251001")), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("%w: gemini provider requires GEMINI_API_KEY", ErrNotConfigured)
		}
		return NewGemini(ctx, cfg.GeminiKey, orDefault(cfg.Model, "gemini-1.5-flash-latest"))
	case "ollama":
		return NewOllama(orDefault(cfg.OllamaURL, "http://localhost:11434"), orDefault(cfg.OllamaModel, "llama3.2")), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// Close releases provider resources when the client holds any.
func Close(c Client) error {
	if cl, ok := c.(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// maxTokens applies the provider default when the request leaves it unset.
func maxTokens(n int) int {
	if n <= 0 {
		return 2048
	}
	return n
}
