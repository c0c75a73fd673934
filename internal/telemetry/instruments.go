package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Instruments groups the chat metrics recorded by the controller and backends
type Instruments struct {
	StreamDuration  metric.Float64Histogram
	Fragments       metric.Int64Counter
	Failures        metric.Int64Counter
	SessionsCreated metric.Int64Counter
}

// NewInstruments registers the chat metrics on meter
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	duration, err := meter.Float64Histogram(
		"chat.stream.duration",
		metric.WithDescription("Streaming request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	fragments, err := meter.Int64Counter(
		"chat.stream.fragments",
		metric.WithDescription("Text fragments received from the chat service"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fragments counter: %w", err)
	}

	failures, err := meter.Int64Counter(
		"chat.stream.failures",
		metric.WithDescription("Streaming requests that ended in an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create failures counter: %w", err)
	}

	sessions, err := meter.Int64Counter(
		"chat.sessions.created",
		metric.WithDescription("Chat sessions opened"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions counter: %w", err)
	}

	return &Instruments{
		StreamDuration:  duration,
		Fragments:       fragments,
		Failures:        failures,
		SessionsCreated: sessions,
	}, nil
}

// NoopInstruments returns instruments that record nothing
func NoopInstruments() *Instruments {
	inst, _ := NewInstruments(noop.NewMeterProvider().Meter(serviceName))
	return inst
}

// RecordStream records one finished streaming request
func (i *Instruments) RecordStream(ctx context.Context, backend string, millis float64, fragments int, err error) {
	attrs := metric.WithAttributes(attribute.String("backend", backend))
	i.StreamDuration.Record(ctx, millis, attrs)
	i.Fragments.Add(ctx, int64(fragments), attrs)
	if err != nil {
		i.Failures.Add(ctx, 1, attrs)
	}
}
