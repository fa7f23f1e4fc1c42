package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini calls Google's Gemini models through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete generates content with Instructions as the system instruction.
func (g *Gemini) Complete(ctx context.Context, r Request) (*Response, error) {
	model := g.client.GenerativeModel(g.model)
	if r.Instructions != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(r.Instructions)},
		}
	}

	temp := float32(0.3)
	limit := int32(maxTokens(r.MaxTokens))
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &limit,
		Temperature:     &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(r.Input))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	var text strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}

	var tokens int
	if resp != nil && resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &Response{
		Content:    text.String(),
		Provider:   "gemini",
		TokensUsed: tokens,
	}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
