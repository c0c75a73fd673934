package chatbot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"StreamChat/internal/backend"
	"StreamChat/internal/config"
	"StreamChat/internal/session"
	"StreamChat/internal/telemetry"
	"StreamChat/internal/tui"
)

// ModelLister lists the models a local server can run
type ModelLister interface {
	ListModels(ctx context.Context) ([]backend.OllamaModel, error)
}

// ChatBot represents the main application
type ChatBot struct {
	config     config.Config
	logger     *slog.Logger
	controller *Controller
	models     ModelLister

	in  io.Reader
	out io.Writer

	cleanup []func()
}

// NewChatBot wires logging, telemetry, the chat backend and the controller
func NewChatBot(ctx context.Context, cfg config.Config, version string) (*ChatBot, error) {
	logger, closeLog, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracer, meter, shutdown, err := telemetry.InitTelemetry(ctx, cfg.LogDir, version, cfg.MetricsInterval)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	cb := &ChatBot{
		config: cfg,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
		cleanup: []func(){
			shutdown,
			func() { _ = closeLog() },
		},
	}

	inst, err := telemetry.NewInstruments(meter)
	if err != nil {
		cb.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	streamer, err := backend.New(ctx, cfg, tracer, inst, logger)
	if err != nil {
		cb.Close()
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Backend, err)
	}

	cb.controller = NewController(session.NewStore(), streamer, logger, tracer, inst)
	if cfg.Backend == config.BackendOllama {
		cb.models = backend.NewOllamaClient(cfg.OllamaURL, "", "")
	}

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}
	logger.Info("chatbot initialized", "backend", cfg.Backend, "version", version, "plain", cfg.Plain)
	return cb, nil
}

// Controller exposes the chat state machine
func (cb *ChatBot) Controller() *Controller {
	return cb.controller
}

// Run starts the UI selected by the configuration
func (cb *ChatBot) Run(ctx context.Context) error {
	if cb.config.Plain {
		return cb.runREPL(ctx)
	}
	if err := tui.Run(ctx, cb.controller); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Close flushes telemetry and closes log files
func (cb *ChatBot) Close() {
	for _, fn := range cb.cleanup {
		fn()
	}
	cb.cleanup = nil
}
