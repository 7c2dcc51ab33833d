package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"rbmfcli/internal/infrastructure"
	"rbmfcli/pkg/contracts/domain"
)

const (
	TracerName = "rbmfcli.pipeline"
)

// PipelineTracer records a span per collection and per step, and feeds the
// pipeline counters
type PipelineTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewPipelineTracer creates a tracer over the given providers
func NewPipelineTracer(providers *infrastructure.OTelProviders) (*PipelineTracer, error) {
	if providers == nil {
		return NewNoopPipelineTracer(), nil
	}
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	tracer := providers.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &PipelineTracer{tracer: tracer, metrics: metrics}, nil
}

// NewNoopPipelineTracer uses the global tracer and no-op instruments
func NewNoopPipelineTracer() *PipelineTracer {
	metrics, _ := infrastructure.CreateBusinessMetrics(nil)
	return &PipelineTracer{tracer: otel.Tracer(TracerName), metrics: metrics}
}

// TraceCollection starts the span of one collection run
func (pt *PipelineTracer) TraceCollection(ctx context.Context, collectionID string) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "pipeline.collection",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("collection.id", collectionID)),
	)
	pt.metrics.ActiveCollections.Add(ctx, 1)
	return ctx, span
}

// RecordCollection closes the bookkeeping of a collection run. result may be
// nil when the run failed before emitting.
func (pt *PipelineTracer) RecordCollection(ctx context.Context, span trace.Span, collectionID string, result *domain.CollectionResult, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("status", status))

	pt.metrics.ActiveCollections.Add(ctx, -1)
	pt.metrics.CollectionsTotal.Add(ctx, 1, attrs)
	pt.metrics.CollectionDuration.Record(ctx, duration.Seconds(), attrs)

	span.SetAttributes(
		attribute.String("collection.status", status),
		attribute.Float64("collection.duration_seconds", duration.Seconds()),
	)

	if result != nil {
		s := result.Summary
		pt.metrics.RowsParsed.Add(ctx, int64(s.RowsParsed))
		pt.metrics.RowsSkipped.Add(ctx, int64(s.RowsSkipped))
		pt.metrics.RowsEmitted.Add(ctx, int64(s.RowsEmitted))
		pt.metrics.FilesSkipped.Add(ctx, int64(s.FilesSkipped))
		pt.metrics.Discrepancies.Add(ctx, int64(s.Discrepancies))

		infrastructure.AddSpanEvent(ctx, "collection.completed", map[string]interface{}{
			"collection_id":   collectionID,
			"files_seen":      s.FilesSeen,
			"files_processed": s.FilesProcessed,
			"files_skipped":   s.FilesSkipped,
			"rows_parsed":     s.RowsParsed,
			"rows_skipped":    s.RowsSkipped,
			"rows_emitted":    s.RowsEmitted,
			"discrepancies":   s.Discrepancies,
		})
	}

	if err != nil {
		infrastructure.RecordError(ctx, err, trace.WithAttributes(attribute.String("error.type", string(GetErrorType(err)))))
		return
	}
	span.SetStatus(codes.Ok, "collection transformed")
}

// TraceStep starts the span of one step attempt
func (pt *PipelineTracer) TraceStep(ctx context.Context, operationID, stepID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStep records the outcome of one step attempt on span
func (pt *PipelineTracer) RecordStep(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", status),
	)
	pt.metrics.StepsTotal.Add(ctx, 1, attrs)
	pt.metrics.StepDuration.Record(ctx, duration.Seconds(), attrs)

	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
