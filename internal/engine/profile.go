package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/decisionos/internal/decision"
	"github.com/lazypower/decisionos/internal/llm"
	"github.com/lazypower/decisionos/internal/store"
)

// ProfileKeys are the attributes the model is asked to infer.
var ProfileKeys = []string{
	"potentialAgeRange",
	"professionalType",
	"industry",
	"seniority",
	"focusAreas",
	"profileDescription",
}

// OverflowKey holds the raw model text when it was not a JSON object.
const OverflowKey = "other"

// NoDecisionsYet explains a null profile.
const NoDecisionsYet = "No decisions yet."

// ProfileResult is the outcome of SynthesizeProfile. A nil Profile means the
// account has no decisions or the stored profile is unreadable.
type ProfileResult struct {
	Profile        map[string]string `json:"profile"`
	DecisionsCount int               `json:"decisionsCount"`
	Updated        bool              `json:"updated"`
	Message        string            `json:"message,omitempty"`
}

// SynthesizeProfile returns the account's profile, recomputing it only when
// the decision count differs from the count it was last computed over.
func (e *Engine) SynthesizeProfile(ctx context.Context, accountID string) (*ProfileResult, error) {
	ds, err := e.DB.ListDecisions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: load decisions: %w", decision.ErrPersistence, err)
	}
	count := len(ds)
	if count == 0 {
		return &ProfileResult{Message: NoDecisionsYet}, nil
	}

	existing, err := e.DB.GetProfile(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %w", decision.ErrPersistence, err)
	}
	if existing != nil && existing.DecisionsCount == count {
		return &ProfileResult{Profile: existing.Fields, DecisionsCount: count}, nil
	}

	doc, _ := truncate(profileDocument(ds), maxProfileDocChars)
	resp, err := e.complete(ctx, llm.Request{
		Instructions: llm.ProfileInstructions,
		Input:        llm.ProfileInput(doc),
		MaxTokens:    512,
	})
	if err != nil {
		return nil, err
	}

	fields := profileFields(llm.DecodeJSON[map[string]any](resp.Content))

	if err := e.DB.UpsertProfile(ctx, store.Profile{
		AccountID:      accountID,
		Fields:         fields,
		DecisionsCount: count,
		UpdatedAt:      time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("%w: save profile: %w", decision.ErrPersistence, err)
	}

	return &ProfileResult{Profile: fields, DecisionsCount: count, Updated: true}, nil
}

// profileFields flattens a decoded reply into string attributes. Text that is
// not a JSON object, including a bare null, is kept under OverflowKey.
func profileFields(r llm.Reply[map[string]any]) map[string]string {
	fields := map[string]string{}
	if r.Fallback || r.Value == nil {
		if r.Raw != "" {
			fields[OverflowKey] = r.Raw
		}
		return fields
	}
	for k, v := range r.Value {
		fields[k] = textOf(v)
	}
	return fields
}

// textOf renders a JSON value as profile text. Lists are joined by ", ".
func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := textOf(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
