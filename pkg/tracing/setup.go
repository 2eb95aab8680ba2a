package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/Ramsey-B/laurel/pkg/tracing/exporters"
)

// Config configures the trace pipeline
type Config struct {
	ServiceName string
	Version     string

	// OTLP selects the OTLP exporter when set; nil falls back to the
	// console exporter
	OTLP *exporters.OTLPConfig
}

// Setup installs the global tracer provider and the package tracer.
// Returns a shutdown function that flushes pending spans.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}
	if cfg.OTLP != nil {
		exp, err := exporters.NewOTLPExporter(ctx, *cfg.OTLP)
		if err != nil {
			return nil, err
		}
		exporter = exp
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.Version),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	SetTracer(tp.Tracer(cfg.ServiceName))

	return tp.Shutdown, nil
}
