// Package llm provides the text-generation clients used to rewrite
// components. Clients return the raw completion text; no retries happen at
// this layer.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a chat-style completion request.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Completer sends a request to a text-generation service and returns the
// first completion's text. An empty string means the service produced none.
type Completer interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Models requested when the configuration names none.
const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	if strings.ToLower(provider) == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// New creates a Completer for provider. An empty provider selects OpenAI.
func New(ctx context.Context, provider, apiKey string, opts ...ClientOption) (Completer, error) {
	switch strings.ToLower(provider) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(apiKey, opts...), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}
