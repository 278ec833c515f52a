// Package tracing wires the process into an OTLP collector. Tracing is
// opt-in: with no endpoint configured the returned shutdown is a no-op and
// the global tracer provider stays untouched.
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options carries the tracing slice of the application config.
type Options struct {
	ServiceName string
	Environment string
	// Endpoint is the OTLP HTTP collector address. Empty disables tracing.
	Endpoint string
	// Insecure skips TLS towards the collector; on for local collectors.
	Insecure bool
	// SampleRatio in [0,1] is applied to trace roots; children follow their
	// parent's decision.
	SampleRatio float64
}

// Init installs the global tracer provider per opts and returns its
// shutdown function.
func Init(ctx context.Context, logger *slog.Logger, opts Options) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Endpoint == "" {
		logger.Info("tracing disabled: no OTLP endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.DeploymentEnvironment(opts.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(opts.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	logger.Info("tracing initialized",
		slog.String("endpoint", opts.Endpoint),
		slog.Float64("sample_ratio", opts.SampleRatio),
	)
	return tp.Shutdown, nil
}
