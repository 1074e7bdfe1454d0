package tui

import (
	"strings"
	"unicode/utf8"
)

// estimateTokens returns approximate token count (~4 chars per token)
func estimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// contextLimits maps model name fragments to context window sizes. The first
// match wins, so more specific fragments come first.
var contextLimits = []struct {
	fragment string
	limit    int
}{
	{"gemini", 1000000},
	{"claude", 200000},
	{"gpt-4o", 128000},
	{"gpt-4-turbo", 128000},
	{"gpt-4-32k", 32000},
	{"gpt-4", 8000},
	{"llama-3", 128000},
	{"llama3", 128000},
	{"qwen2.5", 32000},
	{"mistral", 32000},
	{"mixtral", 32000},
	{"llama", 8000},
}

// getContextLimit returns the context window size for a model
func getContextLimit(model string) int {
	model = strings.ToLower(model)
	for _, c := range contextLimits {
		if strings.Contains(model, c.fragment) {
			return c.limit
		}
	}
	return 8000
}
