package intent

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Matcher tests a normalized prompt.
type Matcher func(normalized string) bool

// Has matches prompts containing substr.
func Has(substr string) Matcher {
	return func(p string) bool { return strings.Contains(p, substr) }
}

// AllOf matches prompts containing every substring.
func AllOf(substrs ...string) Matcher {
	return func(p string) bool {
		for _, s := range substrs {
			if !strings.Contains(p, s) {
				return false
			}
		}
		return true
	}
}

// AnyOf matches prompts containing at least one substring.
func AnyOf(substrs ...string) Matcher {
	return func(p string) bool {
		for _, s := range substrs {
			if strings.Contains(p, s) {
				return true
			}
		}
		return false
	}
}

// Prompt is an inbound prompt in its two working forms.
type Prompt struct {
	// Text is the NFC-normalized, trimmed prompt with its original case.
	// Extractors run over Text.
	Text string

	// Normalized is Text lower-cased. Matchers run over Normalized.
	Normalized string
}

// NewPrompt prepares raw prompt text.
func NewPrompt(raw string) Prompt {
	text := strings.TrimSpace(norm.NFC.String(raw))
	return Prompt{Text: text, Normalized: strings.ToLower(text)}
}

// Normalize returns the form matchers see: NFC, trimmed, lower-cased.
func Normalize(raw string) string {
	return NewPrompt(raw).Normalized
}
