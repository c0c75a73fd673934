package backend

import (
	"context"
	"fmt"

	"StreamChat/internal/session"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient streams chat replies from an OpenAI-compatible API.
// It serves both the openai and grok backends.
type OpenAIClient struct {
	name      string
	client    openai.Client
	model     string
	system    string
	maxTokens int64
}

// NewOpenAIClient creates a client named name. An empty baseURL keeps the
// SDK default endpoint.
func NewOpenAIClient(name, apiKey, model, system string, maxTokens int64, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingAPIKey)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		name:      name,
		client:    openai.NewClient(opts...),
		model:     model,
		system:    system,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the backend identifier
func (c *OpenAIClient) Name() string {
	return c.name
}

// Stream calls chat completions with streaming and forwards content deltas
func (c *OpenAIClient) Stream(ctx context.Context, history []session.Message, onFragment func(string)) error {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: c.messages(history),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer func() { _ = stream.Close() }()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			onFragment(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("%s stream failed: %w", c.name, err)
	}
	return nil
}

func (c *OpenAIClient) messages(history []session.Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if c.system != "" {
		msgs = append(msgs, openai.SystemMessage(c.system))
	}
	for _, msg := range history {
		if msg.Role == session.RoleModel {
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(msg.Content))
		}
	}
	return msgs
}
