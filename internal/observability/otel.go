// Package observability bootstraps OpenTelemetry tracing for the server.
// Spans from the HTTP layer (otelgin), GORM, the model invoker, and the
// roadmap service all flow through the provider installed here.
package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-roadmap-backend/internal/config"
)

// DefaultServiceName is used when OTEL_SERVICE_NAME is blank.
const DefaultServiceName = "go-roadmap-backend"

// newExporter builds the OTLP/gRPC span exporter. Tests swap it for an
// in-memory exporter. The gRPC connection is established lazily.
var newExporter = func(ctx context.Context, cfg config.OTELConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}
	return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
}

// ModelAttributes describes the language model backend on the service
// resource so traces can be filtered per provider and model.
func ModelAttributes(m config.ModelConfig) []attribute.KeyValue {
	out := []attribute.KeyValue{attribute.String("gen_ai.system", "groq")}
	if m.Name != "" {
		out = append(out, attribute.String("gen_ai.request.model", m.Name))
	}
	return out
}

// SetupOTel installs a global tracer provider and W3C propagators, and
// returns a shutdown function that flushes pending spans. When tracing is
// disabled it returns a no-op and leaves the globals untouched; on error the
// globals are untouched as well.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string, extra ...attribute.KeyValue) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		append([]attribute.KeyValue{semconv.ServiceName(name), semconv.ServiceVersion(version)}, extra...)...,
	))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("otel exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}, nil
}

func clampRatio(r float64) float64 {
	return min(max(r, 0), 1)
}
