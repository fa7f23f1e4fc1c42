package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("^```(?:json)?\\s*|\\s*```$")

// Reply is the outcome of decoding model output: either a parsed value or
// the raw text when the output was not the requested JSON.
type Reply[T any] struct {
	Value    T
	Raw      string
	Fallback bool
}

// Parsed reports whether Value holds a decoded result.
func (r Reply[T]) Parsed() bool {
	return !r.Fallback
}

// DecodeJSON strips an optional Markdown code fence from text and decodes
// the remainder into T. It never fails: undecodable output comes back as a
// Fallback carrying the trimmed text.
func DecodeJSON[T any](text string) Reply[T] {
	raw := strings.TrimSpace(text)
	body := strings.TrimSpace(StripFence(raw))

	var v T
	if body == "" || json.Unmarshal([]byte(body), &v) != nil {
		var zero T
		return Reply[T]{Value: zero, Raw: raw, Fallback: true}
	}
	return Reply[T]{Value: v, Raw: raw}
}

// StripFence removes a leading ``` or ```json fence and a trailing ```.
func StripFence(text string) string {
	return fenceRe.ReplaceAllString(strings.TrimSpace(text), "")
}

// Prose returns the trimmed text, or placeholder when nothing came back.
func Prose(text, placeholder string) string {
	if t := strings.TrimSpace(text); t != "" {
		return t
	}
	return placeholder
}
