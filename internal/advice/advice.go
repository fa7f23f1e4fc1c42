// Package advice turns a structured advice form into model instructions and
// input text. Everything here is pure: the same fields always produce the
// same prompt.
package advice

import (
	"fmt"
	"strings"
)

// NotProvided stands in for a blank field so the model always sees every label.
const NotProvided = "(not provided)"

// Field is one named text input of a template.
type Field struct {
	Key      string // JSON body key
	Label    string // short name used in validation messages
	Question string // wording shown to the model
	Required bool
}

// Section groups fields under a heading in the rendered input.
type Section struct {
	Heading string
	Fields  []Field
}

// Template is one advice endpoint: its form, its required-field policy and
// the guidance that specializes the shared instructions.
type Template struct {
	Name     string // URL slug
	Title    string // e.g. "Measurement Strategy"
	Subject  string // completes "The user is making a ... decision"
	Voice    string // who the advice should read as coming from
	Sections []Section

	// Headings and guidance for the three numbered sections.
	Approach    Guide
	Deliverable Guide
	Limits      Guide

	// Guidance is the template-specific paragraph appended to the shared rules.
	Guidance string
}

// Guide is one numbered section of the advice.
type Guide struct {
	Heading string
	Body    string
}

// Fields returns every field in render order.
func (t *Template) Fields() []Field {
	var out []Field
	for _, s := range t.Sections {
		out = append(out, s.Fields...)
	}
	return out
}

// Required returns the required fields in render order.
func (t *Template) Required() []Field {
	var out []Field
	for _, f := range t.Fields() {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Prompt is the pair sent to the completion service.
type Prompt struct {
	Instructions string
	Input        string
}

// MissingFieldsError lists required fields left blank.
type MissingFieldsError struct {
	Missing []Field
}

func (e *MissingFieldsError) Error() string {
	keys := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		keys[i] = f.Key
	}
	return "missing required fields: " + strings.Join(keys, ", ")
}

// Message is the user-facing text. It names at most three fields and ends
// with an ellipsis when more are missing.
func (e *MissingFieldsError) Message() string {
	labels := make([]string, 0, 3)
	for i, f := range e.Missing {
		if i == 3 {
			break
		}
		labels = append(labels, f.Label)
	}
	msg := "Please fill in: " + strings.Join(labels, ", ")
	if len(e.Missing) > 3 {
		msg += "…"
	}
	return msg
}

// Keys returns the body keys of the missing fields.
func (e *MissingFieldsError) Keys() []string {
	keys := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		keys[i] = f.Key
	}
	return keys
}

// Build validates fields against t and renders the prompt. Unknown keys are
// ignored. A *MissingFieldsError is returned when any required field is blank.
func Build(t *Template, fields map[string]string) (Prompt, error) {
	value := func(f Field) string {
		return strings.TrimSpace(fields[f.Key])
	}

	var missing []Field
	for _, f := range t.Required() {
		if value(f) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Prompt{}, &MissingFieldsError{Missing: missing}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user is making a %s decision with the following context:\n", t.Subject)
	for _, s := range t.Sections {
		fmt.Fprintf(&b, "\n**%s**\n", s.Heading)
		for _, f := range s.Fields {
			v := value(f)
			if v == "" {
				v = NotProvided
			}
			fmt.Fprintf(&b, "- %s: %s\n", f.Question, v)
		}
	}
	fmt.Fprintf(&b, "\nFirst decide whether these inputs are substantive (real business context) or placeholder/test/nonsensical. "+
		"If not substantive, reply only with a short message asking the user to re-enter meaningful details, with no full recommendation. "+
		"If substantive, provide your recommendation as follows: (1) Main advice in clean paragraph form, as %s would write to a colleague. "+
		"(2) Then the three numbered sections (%s, %s, %s). Link to relevant whitepapers or methodologies where helpful.",
		t.Voice, t.Approach.Heading, t.Deliverable.Heading, t.Limits.Heading)

	return Prompt{
		Instructions: instructions(t),
		Input:        b.String(),
	}, nil
}

const instructionsTemplate = `You are an executive-grade decision engine. Your voice is that of %s: rigorous but accessible, authoritative without being condescending.

**Step 1: Check if inputs are usable (mandatory)**
Before giving any recommendation, decide whether the user's inputs are substantive and useful. Treat as NOT usable if they are:
- Placeholder or test content (e.g. "test", "e4", "asdf", "fkdfk", "tst", "sample")
- Gibberish, single repeated words, or obviously fake answers
- Vague one-word answers repeated across many fields with no real business context
- Clearly no genuine decision described

If the inputs are NOT usable: respond with ONLY a short, polite message (2-4 sentences) asking the user to re-enter real details. Do not generate a recommendation, and do not include the three numbered sections.

If the inputs ARE substantive (real business context, specific outcomes, genuine questions): proceed to Step 2 and give the full recommendation.

**System rules (shared across all templates)**
- Output must be concise, structured, and politically safe.
- No filler. No clichés. No AI disclaimers.
- Use only provided information. If something is missing, create an explicit assumption and validation plan.

**Step 2: Output format (only when inputs are usable)**
Start with your main recommendation in clean, readable paragraph form, in full sentences and short paragraphs so the reader feels they are getting advice from a senior colleague. Then, below the paragraph section, always include these three numbered sections:

1. **%s**: %s

2. **%s**: %s

3. **%s**: %s

Link to examples, whitepapers, or similar methodologies where relevant.

**Template: %s**
%s`

func instructions(t *Template) string {
	return fmt.Sprintf(instructionsTemplate,
		t.Voice,
		t.Approach.Heading, t.Approach.Body,
		t.Deliverable.Heading, t.Deliverable.Body,
		t.Limits.Heading, t.Limits.Body,
		t.Title, t.Guidance,
	)
}
