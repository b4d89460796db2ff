package service

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// OpEvent captures lightweight execution telemetry for one service operation.
type OpEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// Observer receives operation execution events.
type Observer interface {
	ObserveOp(ctx context.Context, event OpEvent)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) ObserveOp(context.Context, OpEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes operation events to the provided writer.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// NewSlogObserver routes operation events through an existing logger.
func NewSlogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return NoopObserver{}
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) ObserveOp(ctx context.Context, event OpEvent) {
	attrs := make([]any, 0, 8+len(event.Fields)*2)
	attrs = append(attrs,
		"op", event.Name,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "service_op", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "service_op", attrs...)
}

func observerOrNoop(obs Observer) Observer {
	if obs == nil {
		return NoopObserver{}
	}
	return obs
}

// observe emits one OpEvent for a finished operation.
func observe(ctx context.Context, obs Observer, name string, start time.Time, err error, fields map[string]any) {
	obs.ObserveOp(ctx, OpEvent{
		Name:      name,
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
}
