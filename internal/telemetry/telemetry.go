// Package telemetry wires OpenTelemetry tracing for vlayer processes.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "vlayer"

// ShutdownFunc flushes pending spans.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider exporting to endpoint over
// OTLP/HTTP.
//
// Tracing is opt-in: with an empty endpoint Setup returns a no-op
// shutdown and the global provider stays the default no-op one. The
// returned shutdown should be deferred by the caller.
func Setup(ctx context.Context, endpoint string) (ShutdownFunc, error) {
	return setup(ctx, endpoint)
}

func setup(ctx context.Context, endpoint string, resOpts ...resource.Option) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	if endpoint == "" {
		return noop, nil
	}

	// The resource comes first so a failure leaves no exporter behind.
	opts := append([]resource.Option{
		resource.WithAttributes(semconv.ServiceName(ServiceName)),
	}, resOpts...)
	res, err := resource.New(ctx, opts...)
	if err != nil {
		return noop, err
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	slog.Debug("tracing enabled", "endpoint", endpoint)

	return tp.Shutdown, nil
}
