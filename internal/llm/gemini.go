package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Compile-time interface check.
var _ Completer = (*GeminiClient)(nil)

// GeminiClient generates completions with Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed Completer.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Complete maps the chat messages onto Gemini contents. System messages
// become the system instruction.
func (c *GeminiClient) Complete(ctx context.Context, req *Request) (string, error) {
	contents, cfg := geminiContents(req)

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("llm: gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func geminiContents(req *Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	var (
		contents []*genai.Content
		cfg      *genai.GenerateContentConfig
	)
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			cfg = &genai.GenerateContentConfig{
				SystemInstruction: genai.NewContentFromText(m.Content, genai.RoleUser),
			}
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, cfg
}
