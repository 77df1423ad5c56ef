// Package ai defines the text generation contract shared by the LLM providers.
package ai

import (
	"context"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Generator produces text for a system instruction and a single user message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	if nl := strings.IndexByte(raw, '\n'); nl != -1 {
		raw = raw[nl+1:]
	} else {
		raw = strings.TrimPrefix(raw, "```")
	}
	if idx := strings.LastIndex(raw, "```"); idx != -1 {
		raw = raw[:idx]
	}

	return strings.TrimSpace(raw)
}
