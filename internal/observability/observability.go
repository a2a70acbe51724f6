// Package observability provides tracing and metrics for vidsense.
// Tracing uses OpenTelemetry with a stdout exporter by default; metrics
// are exposed via Prometheus on the API server's /metrics endpoint.
package observability

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultServiceName = "vidsense"

var (
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer = noop.NewTracerProvider().Tracer(defaultServiceName)
)

// InitTracing initializes the global tracer.
// Controlled by environment variables:
//   - OTEL_SERVICE_NAME: service name (default "vidsense")
//   - OTEL_TRACES_EXPORTER: "stdout" or "none" (default "none")
func InitTracing() error {
	exporterType := getEnv("OTEL_TRACES_EXPORTER", "none")
	if exporterType == "none" {
		return nil
	}
	if exporterType != "stdout" {
		return fmt.Errorf("unsupported trace exporter: %s", exporterType)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("create stdout exporter: %w", err)
	}

	serviceName := getEnv("OTEL_SERVICE_NAME", defaultServiceName)
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = tracerProvider.Tracer(serviceName)
	return nil
}

// Shutdown flushes and stops the tracer provider.
func Shutdown(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}

// StartSpan starts a span using the global tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, opts...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
