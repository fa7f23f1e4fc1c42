// Package decision defines the decision record, its update rules, and the
// repository facade that routes each request to exactly one backend.
package decision

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// UntitledTitle replaces a blank title.
const UntitledTitle = "Untitled decision"

// Decision is one journal entry.
type Decision struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Context   string     `json:"context"`
	Options   []string   `json:"options"`
	Outcome   string     `json:"outcome,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
}

// Fields is the create tuple. ID and CreatedAt are assigned by the backend.
type Fields struct {
	Title   string   `json:"title"`
	Context string   `json:"context"`
	Options []string `json:"options"`
	Outcome string   `json:"outcome,omitempty"`
}

// Normalize trims every field, drops blank options and substitutes
// UntitledTitle for a blank title.
func (f Fields) Normalize() Fields {
	out := Fields{
		Title:   strings.TrimSpace(f.Title),
		Context: strings.TrimSpace(f.Context),
		Options: cleanOptions(f.Options),
		Outcome: strings.TrimSpace(f.Outcome),
	}
	if out.Title == "" {
		out.Title = UntitledTitle
	}
	return out
}

// Patch is a partial update; nil fields are left untouched.
// A non-nil DecidedAt holding the zero time clears the field. In JSON,
// "decidedAt": null decodes to that clearing value.
type Patch struct {
	Title     *string    `json:"title,omitempty"`
	Context   *string    `json:"context,omitempty"`
	Options   *[]string  `json:"options,omitempty"`
	Outcome   *string    `json:"outcome,omitempty"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
}

// UnmarshalJSON tells an explicit "decidedAt": null apart from an absent key.
func (p *Patch) UnmarshalJSON(b []byte) error {
	type plain Patch
	var in struct {
		plain
		DecidedAt json.RawMessage `json:"decidedAt"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*p = Patch(in.plain)

	switch {
	case in.DecidedAt == nil:
	case string(in.DecidedAt) == "null":
		p.DecidedAt = &time.Time{}
	default:
		var t time.Time
		if err := json.Unmarshal(in.DecidedAt, &t); err != nil {
			return err
		}
		p.DecidedAt = &t
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Context == nil && p.Options == nil && p.Outcome == nil && p.DecidedAt == nil
}

// Resolve normalizes the patch and applies the outcome rule: a non-blank
// outcome stamps DecidedAt with now, a blank outcome clears DecidedAt. The
// rule wins over an explicit DecidedAt in the same patch.
func (p Patch) Resolve(now time.Time) Patch {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			t = UntitledTitle
		}
		p.Title = &t
	}
	if p.Context != nil {
		c := strings.TrimSpace(*p.Context)
		p.Context = &c
	}
	if p.Options != nil {
		o := cleanOptions(*p.Options)
		p.Options = &o
	}
	if p.Outcome != nil {
		o := strings.TrimSpace(*p.Outcome)
		p.Outcome = &o
		var decided time.Time
		if o != "" {
			decided = now
		}
		p.DecidedAt = &decided
	}
	return p
}

// Apply merges a resolved patch into d.
func Apply(d *Decision, p Patch) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Context != nil {
		d.Context = *p.Context
	}
	if p.Options != nil {
		d.Options = append([]string{}, *p.Options...)
	}
	if p.Outcome != nil {
		d.Outcome = *p.Outcome
	}
	if p.DecidedAt != nil {
		if p.DecidedAt.IsZero() {
			d.DecidedAt = nil
		} else {
			t := *p.DecidedAt
			d.DecidedAt = &t
		}
	}
}

// SortNewestFirst orders decisions by CreatedAt descending. Ties keep their
// existing order.
func SortNewestFirst(ds []Decision) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].CreatedAt.After(ds[j].CreatedAt)
	})
}

func cleanOptions(opts []string) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
