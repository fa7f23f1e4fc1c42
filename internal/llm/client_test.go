package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lazypower/decisionos/internal/config"
)

func TestNewClientOpenAI(t *testing.T) {
	cfg := config.LLMConfig{Provider: "openai", OpenAIKey: "test-key"}
	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	o, ok := client.(*OpenAI)
	if !ok {
		t.Fatalf("expected *OpenAI, got %T", client)
	}
	if o.model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", o.model)
	}
}

func TestNewClientAnthropic(t *testing.T) {
	cfg := config.LLMConfig{Provider: "anthropic", AnthropicKey: "test-key", Model: "claude-haiku-4-5-20251001"}
	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, ok := client.(*Anthropic); !ok {
		t.Errorf("expected *Anthropic, got %T", client)
	}
}

func TestNewClientMissingKey(t *testing.T) {
	for _, provider := range []string{"", "openai", "anthropic", "gemini"} {
		_, err := NewClient(context.Background(), config.LLMConfig{Provider: provider})
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("provider %q: err = %v, want ErrNotConfigured", provider, err)
		}
	}
}

func TestNewClientOllama(t *testing.T) {
	cfg := config.LLMConfig{Provider: "ollama", OllamaModel: "llama3.2"}
	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, ok := client.(*Ollama); !ok {
		t.Errorf("expected *Ollama, got %T", client)
	}
	if err := Close(client); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewClientUnknown(t *testing.T) {
	cfg := config.LLMConfig{Provider: "gpt"}
	_, err := NewClient(context.Background(), cfg)
	if err == nil {
		t.Error("expected error for unknown provider")
	}
	if errors.Is(err, ErrNotConfigured) {
		t.Error("unknown provider should not read as unconfigured")
	}
}

func TestOpenAIComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{
			"output": [
				{"type": "web_search_call"},
				{"type": "message", "content": [{"type": "output_text", "text": "Use a "}, {"type": "output_text", "text": "dashboard."}]}
			],
			"usage": {"total_tokens": 42}
		}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", "gpt-4o-mini")
	o.endpoint = srv.URL

	resp, err := o.Complete(context.Background(), Request{
		Instructions: "be brief",
		Input:        "hello",
		MaxTokens:    2048,
		WebSearch:    true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "Use a dashboard." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d, want 42", resp.TokensUsed)
	}
	if got["instructions"] != "be brief" || got["input"] != "hello" {
		t.Errorf("request body = %v", got)
	}
	if got["max_output_tokens"] != float64(2048) {
		t.Errorf("max_output_tokens = %v", got["max_output_tokens"])
	}
	tools, _ := got["tools"].([]any)
	if len(tools) != 1 {
		t.Errorf("tools = %v, want web_search_preview", got["tools"])
	}
}

func TestOpenAINoToolsWithoutWebSearch(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"output_text": "ok"}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", "gpt-4o-mini")
	o.endpoint = srv.URL
	resp, err := o.Complete(context.Background(), Request{Input: "x", MaxTokens: 512})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want ok", resp.Content)
	}
	if _, ok := got["tools"]; ok {
		t.Errorf("tools sent without WebSearch: %v", got["tools"])
	}
}

func TestProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewAnthropic("key", "model")
	a.endpoint = srv.URL
	if _, err := a.Complete(context.Background(), Request{Input: "x"}); err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("anthropic err = %v, want status 503", err)
	}

	o := NewOllama(srv.URL, "llama3.2")
	if _, err := o.Complete(context.Background(), Request{Input: "x"}); err == nil {
		t.Error("ollama: expected error")
	}
}

func TestAnthropicSystemField(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"a\":1}"}],"usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer srv.Close()

	a := NewAnthropic("key", "model")
	a.endpoint = srv.URL
	resp, err := a.Complete(context.Background(), Request{Instructions: "sys", Input: "user", MaxTokens: 512})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got["system"] != "sys" {
		t.Errorf("system = %v, want sys", got["system"])
	}
	if got["max_tokens"] != float64(512) {
		t.Errorf("max_tokens = %v, want 512", got["max_tokens"])
	}
	if resp.Content != `{"a":1}` || resp.TokensUsed != 7 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOllamaComplete(t *testing.T) {
	var (
		path string
		got  map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"response":"  fine  ","prompt_eval_count":10,"eval_count":5}`))
	}))
	defer srv.Close()

	o := NewOllama(srv.URL+"/", "llama3.2")
	resp, err := o.Complete(context.Background(), Request{Instructions: "sys", Input: "user", MaxTokens: 256})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if path != "/api/generate" {
		t.Errorf("path = %q, want /api/generate", path)
	}
	if got["system"] != "sys" || got["prompt"] != "user" || got["model"] != "llama3.2" || got["stream"] != false {
		t.Errorf("request = %v", got)
	}
	opts, _ := got["options"].(map[string]any)
	if opts["num_predict"] != float64(256) {
		t.Errorf("num_predict = %v, want 256", opts["num_predict"])
	}
	if resp.Content != "  fine  " || resp.TokensUsed != 15 || resp.Provider != "ollama" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOllamaDefaultsAndErrors(t *testing.T) {
	var (
		got    map[string]any
		status atomic.Int32
	)
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(int(status.Load()))
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "m")
	if _, err := o.Complete(context.Background(), Request{Input: "x"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, ok := got["system"]; ok {
		t.Errorf("system sent without instructions: %v", got["system"])
	}
	if opts, _ := got["options"].(map[string]any); opts["num_predict"] != float64(2048) {
		t.Errorf("num_predict = %v, want default 2048", opts["num_predict"])
	}

	status.Store(http.StatusInternalServerError)
	if _, err := o.Complete(context.Background(), Request{Input: "x"}); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("err = %v, want status error", err)
	}
}

func TestMockClient(t *testing.T) {
	mock := NewMock("test response")

	resp, err := mock.Complete(context.Background(), Request{Input: "test prompt"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("content = %q, want %q", resp.Content, "test response")
	}
	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 call, got %d", len(reqs))
	}
	if reqs[0].Input != "test prompt" {
		t.Errorf("call[0] = %q, want %q", reqs[0].Input, "test prompt")
	}
}

func TestPromptsEmbedDocument(t *testing.T) {
	if !strings.Contains(InsightsInput("DOC"), "\n\nDOC\n\n") {
		t.Error("InsightsInput should embed the document between blank lines")
	}
	if !strings.HasSuffix(ProfileInput("DOC"), "Decisions:\n\nDOC") {
		t.Error("ProfileInput should end with the document")
	}
	for _, key := range []string{"potentialAgeRange", "professionalType", "industry", "seniority", "focusAreas", "profileDescription"} {
		if !strings.Contains(ProfileInstructions, key) {
			t.Errorf("ProfileInstructions missing key %q", key)
		}
	}
}
