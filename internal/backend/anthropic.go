package backend

import (
	"context"
	"fmt"

	"StreamChat/internal/config"
	"StreamChat/internal/session"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient streams chat replies from the Anthropic Messages API
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	system    string
	maxTokens int64
}

// NewAnthropicClient creates an Anthropic client. An empty baseURL keeps the
// SDK default endpoint.
func NewAnthropicClient(apiKey, model, system string, maxTokens int64, baseURL string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY: %w", ErrMissingAPIKey)
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		system:    system,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the backend identifier
func (c *AnthropicClient) Name() string {
	return config.BackendAnthropic
}

// Stream calls Messages.NewStreaming and forwards text deltas
func (c *AnthropicClient) Stream(ctx context.Context, history []session.Message, onFragment func(string)) error {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  anthropicMessages(history),
	}
	if c.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.system}}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer func() { _ = stream.Close() }()

	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				onFragment(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream failed: %w", err)
	}
	return nil
}

// anthropicMessages skips empty messages; the API rejects empty text blocks.
func anthropicMessages(history []session.Message) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == session.RoleModel {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	return msgs
}
