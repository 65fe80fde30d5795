package pipeline

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"revforecast/internal/infrastructure"
	"revforecast/pkg/contracts/events"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "revforecast.pipeline"

// stageRunner executes stages with a span, a log line and metrics each.
type stageRunner struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
	pub     Publisher
	stages  []*StageState
}

func newStageRunner(logger *slog.Logger, metrics *infrastructure.PipelineMetrics, pub Publisher) *stageRunner {
	return &stageRunner{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
		logger:  logger,
		pub:     pub,
	}
}

func (r *stageRunner) publish(ctx context.Context, state *StageState) {
	if r.pub == nil {
		return
	}
	state.mu.RLock()
	snap := events.StageSnapshot{
		Name:    state.Name,
		Status:  string(state.Status),
		Records: state.Records,
		Message: state.Message,
		Error:   state.Error,
	}
	state.mu.RUnlock()
	snap.DurationMS = state.Duration().Milliseconds()
	r.pub.Publish(ctx, events.NewMessage(events.MessageTypeStageUpdate, infrastructure.GetRunID(ctx), snap))
}

// run executes fn as the named stage. fn returns the number of records it
// produced.
func (r *stageRunner) run(ctx context.Context, name string, fn func(ctx context.Context) (int, error)) error {
	state := NewStageState(name)
	r.stages = append(r.stages, state)

	ctx, span := r.tracer.Start(ctx, "pipeline.stage."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", infrastructure.GetRunID(ctx)),
			attribute.String("pipeline.stage", name),
		),
	)
	defer span.End()

	state.Start()
	r.publish(ctx, state)
	records, err := fn(ctx)
	if err != nil {
		state.Fail(err)
		r.publish(ctx, state)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordStage(ctx, name, state.Duration(), 0, err)
		r.logger.ErrorContext(ctx, "Stage failed",
			slog.String("stage", name),
			slog.Duration("duration", state.Duration()),
			slog.String("error", err.Error()))
		return err
	}

	state.Complete(records)
	r.publish(ctx, state)
	span.SetAttributes(attribute.Int("pipeline.records", records))
	span.SetStatus(codes.Ok, "")
	r.metrics.RecordStage(ctx, name, state.Duration(), records, nil)
	r.logger.DebugContext(ctx, "Stage completed",
		slog.String("stage", name),
		slog.Int("records", records),
		slog.Duration("duration", state.Duration()))
	return nil
}

// skip records a stage that did not run.
func (r *stageRunner) skip(ctx context.Context, name, reason string) {
	state := NewStageState(name)
	state.Skip(reason)
	r.stages = append(r.stages, state)
	r.publish(ctx, state)
}
