// Package backend implements the streaming chat service clients.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"StreamChat/internal/config"
	"StreamChat/internal/session"
	"StreamChat/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrMissingAPIKey is returned when a hosted backend is selected without its key
var ErrMissingAPIKey = errors.New("API key not set")

// Streamer sends a conversation to a chat service and reports the reply as
// it arrives. onFragment is called once per text fragment, in the order the
// service produced them. Stream returns nil when the reply is complete.
type Streamer interface {
	Stream(ctx context.Context, history []session.Message, onFragment func(string)) error
	Name() string
}

// DefaultModel returns the model used when none is configured
func DefaultModel(backend string) string {
	switch backend {
	case config.BackendGemini:
		return "gemini-2.5-flash"
	case config.BackendOllama:
		return "llama3:latest"
	case config.BackendAnthropic:
		return "claude-sonnet-4-20250514"
	case config.BackendGrok:
		return "grok-3"
	case config.BackendOpenAI:
		return "gpt-4o-mini"
	default:
		return ""
	}
}

// New builds the client for cfg.Backend, wrapped with tracing and metrics
func New(ctx context.Context, cfg config.Config, tracer trace.Tracer, inst *telemetry.Instruments, logger *slog.Logger) (Streamer, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel(cfg.Backend)
	}

	var (
		s   Streamer
		err error
	)
	switch cfg.Backend {
	case config.BackendGemini:
		s, err = NewGeminiClient(ctx, cfg.GeminiAPIKey, model, cfg.SystemPrompt, int32(cfg.MaxTokens), cfg.GeminiURL)
	case config.BackendOllama:
		s = NewOllamaClient(cfg.OllamaURL, model, cfg.SystemPrompt)
	case config.BackendAnthropic:
		s, err = NewAnthropicClient(cfg.AnthropicAPIKey, model, cfg.SystemPrompt, cfg.MaxTokens, cfg.AnthropicURL)
	case config.BackendGrok:
		s, err = NewOpenAIClient(config.BackendGrok, cfg.GrokAPIKey, model, cfg.SystemPrompt, cfg.MaxTokens, cfg.GrokURL)
	case config.BackendOpenAI:
		s, err = NewOpenAIClient(config.BackendOpenAI, cfg.OpenAIAPIKey, model, cfg.SystemPrompt, cfg.MaxTokens, "")
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("chat backend ready", "backend", cfg.Backend, "model", model)
	return Traced(s, tracer, inst, logger), nil
}

type tracedStreamer struct {
	inner  Streamer
	tracer trace.Tracer
	inst   *telemetry.Instruments
	logger *slog.Logger
}

// Traced wraps s so that every Stream call gets a span, duration and
// fragment metrics and a log line.
func Traced(s Streamer, tracer trace.Tracer, inst *telemetry.Instruments, logger *slog.Logger) Streamer {
	return &tracedStreamer{inner: s, tracer: tracer, inst: inst, logger: logger}
}

func (t *tracedStreamer) Name() string {
	return t.inner.Name()
}

func (t *tracedStreamer) Stream(ctx context.Context, history []session.Message, onFragment func(string)) error {
	ctx, span := t.tracer.Start(ctx, t.inner.Name()+"_stream")
	defer span.End()

	start := time.Now()
	fragments := 0
	err := t.inner.Stream(ctx, history, func(fragment string) {
		fragments++
		onFragment(fragment)
	})
	duration := time.Since(start)

	span.SetAttributes(
		attribute.String("chat.backend", t.inner.Name()),
		attribute.Int("chat.history_length", len(history)),
		attribute.Int("chat.fragments", fragments),
	)
	t.inst.RecordStream(ctx, t.inner.Name(), float64(duration.Milliseconds()), fragments, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.Error("chat stream failed", "backend", t.inner.Name(), "fragments", fragments, "error", err)
		return err
	}

	t.logger.Info("chat stream completed", "backend", t.inner.Name(), "fragments", fragments, "duration_ms", duration.Milliseconds())
	return nil
}
