package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/decisionos/internal/decision"
)

// Document size limits, in characters.
const (
	maxProfileDocChars  = 12000
	maxInsightsRawChars = 2000
)

const noOutcome = "(none)"

// profileDocument renders decisions as "[i] Title/Context/Outcome" blocks
// separated by blank lines.
func profileDocument(ds []decision.Decision) string {
	blocks := make([]string, len(ds))
	for i, d := range ds {
		blocks[i] = fmt.Sprintf("[%d] Title: %s\nContext: %s\nOutcome: %s",
			i+1, d.Title, d.Context, outcomeOrNone(d.Outcome))
	}
	return strings.Join(blocks, "\n\n")
}

// insightsDocument renders decisions as "[Decision i]" blocks separated by
// horizontal rules.
func insightsDocument(ds []decision.Decision) string {
	blocks := make([]string, len(ds))
	for i, d := range ds {
		blocks[i] = fmt.Sprintf("[Decision %d] Title: %s\nContext: %s\nOutcome: %s\nCreated: %s",
			i+1, d.Title, d.Context, outcomeOrNone(d.Outcome), d.CreatedAt.UTC().Format(time.RFC3339))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func outcomeOrNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return noOutcome
	}
	return s
}

// truncate cuts s to at most max runes and reports whether it cut anything.
func truncate(s string, max int) (string, bool) {
	if len(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
