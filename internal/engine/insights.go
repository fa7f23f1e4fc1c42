package engine

import (
	"context"
	"fmt"

	"github.com/lazypower/decisionos/internal/decision"
	"github.com/lazypower/decisionos/internal/llm"
)

const (
	// NoDecisionsInsight is returned without a model call for an empty journal.
	NoDecisionsInsight = "You don't have any decisions yet. Create and save decisions to see insights here."
	// NoInsights replaces a missing narrative.
	NoInsights = "Unable to generate insights."
)

// Insights is a cross-decision summary. It is computed per request and
// never stored.
type Insights struct {
	TopicsCount int      `json:"topicsCount"`
	Learnings   []string `json:"learnings"`
	Insights    string   `json:"insights"`
	Raw         string   `json:"raw"`
}

// Insights summarizes every decision of the account.
func (e *Engine) Insights(ctx context.Context, accountID string) (*Insights, error) {
	ds, err := e.DB.ListDecisions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: load decisions: %w", decision.ErrPersistence, err)
	}
	if len(ds) == 0 {
		return &Insights{Learnings: []string{}, Insights: NoDecisionsInsight}, nil
	}

	doc := insightsDocument(ds)
	resp, err := e.complete(ctx, llm.Request{
		Instructions: llm.InsightsInstructions,
		Input:        llm.InsightsInput(doc),
		MaxTokens:    1024,
	})
	if err != nil {
		return nil, err
	}

	out := summarize(llm.DecodeJSON[map[string]any](resp.Content))
	raw, cut := truncate(doc, maxInsightsRawChars)
	if cut {
		raw += "…"
	}
	out.Raw = raw
	return out, nil
}

// summarize applies field defaults to a decoded reply. A fallback reply
// keeps the model text as the narrative.
func summarize(r llm.Reply[map[string]any]) *Insights {
	out := &Insights{Learnings: []string{}, Insights: NoInsights}
	if r.Fallback {
		if r.Raw != "" {
			out.Insights = r.Raw
		}
		return out
	}

	if n, ok := r.Value["topicsCount"].(float64); ok && n > 0 {
		out.TopicsCount = int(n)
	}
	if items, ok := r.Value["learnings"].([]any); ok {
		for _, item := range items {
			if s := textOf(item); s != "" {
				out.Learnings = append(out.Learnings, s)
			}
		}
	}
	if s, ok := r.Value["insights"].(string); ok && s != "" {
		out.Insights = s
	}
	return out
}
