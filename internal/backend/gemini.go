package backend

import (
	"context"
	"fmt"

	"StreamChat/internal/config"
	"StreamChat/internal/session"

	"google.golang.org/genai"
)

// GeminiClient streams chat replies from the Google Gemini API
type GeminiClient struct {
	client    *genai.Client
	model     string
	system    string
	maxTokens int32
}

// NewGeminiClient creates a Gemini client. No request is made until Stream.
// An empty baseURL keeps the SDK default endpoint.
func NewGeminiClient(ctx context.Context, apiKey, model, system string, maxTokens int32, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY: %w", ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		model:     model,
		system:    system,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the backend identifier
func (c *GeminiClient) Name() string {
	return config.BackendGemini
}

// Stream calls GenerateContentStream and forwards every non-thought text part
func (c *GeminiClient) Stream(ctx context.Context, history []session.Message, onFragment func(string)) error {
	contents := geminiContents(history)

	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, c.generationConfig()) {
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		for _, text := range geminiText(resp) {
			onFragment(text)
		}
	}
	return nil
}

func (c *GeminiClient) generationConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if c.system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(c.system, genai.RoleUser)
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}
	return cfg
}

// geminiContents converts history to Gemini contents; Gemini calls the
// assistant role "model". Empty messages are skipped since the API rejects
// parts without text.
func geminiContents(history []session.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == session.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

func geminiText(resp *genai.GenerateContentResponse) []string {
	if resp == nil {
		return nil
	}
	var out []string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			out = append(out, part.Text)
		}
	}
	return out
}
