package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openAIResponsesAPI = "https://api.openai.com/v1/responses"

// OpenAI calls the OpenAI Responses API.
type OpenAI struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewOpenAI creates a new OpenAI API client.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		apiKey:   apiKey,
		model:    model,
		endpoint: openAIResponsesAPI,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Complete sends the request to the Responses API. WebSearch enables the
// web_search_preview tool.
func (o *OpenAI) Complete(ctx context.Context, r Request) (*Response, error) {
	reqBody := map[string]any{
		"model":             o.model,
		"input":             r.Input,
		"max_output_tokens": maxTokens(r.MaxTokens),
	}
	if r.Instructions != "" {
		reqBody["instructions"] = r.Instructions
	}
	if r.WebSearch {
		reqBody["tools"] = []map[string]string{{"type": "web_search_preview"}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai api status %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// output_text is an SDK convenience; the raw API only guarantees output[].
	text := result.OutputText
	if text == "" {
		var sb strings.Builder
		for _, item := range result.Output {
			if item.Type != "message" {
				continue
			}
			for _, c := range item.Content {
				if c.Type == "output_text" {
					sb.WriteString(c.Text)
				}
			}
		}
		text = sb.String()
	}

	return &Response{
		Content:    text,
		Provider:   "openai",
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}
