package telemetry

import (
	"context"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// setupTracing returns the tracer of the service. Without an endpoint it uses the global provider,
// which is a no-op unless the embedding program installs one. With an endpoint it installs an SDK
// provider exporting over OTLP/gRPC and returns its shutdown function.
func setupTracing(opts Options) (trace.Tracer, func(context.Context) error, error) {
	if opts.TraceEndpoint == "" {
		return otel.Tracer(opts.ServiceName), func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(opts.ServiceName)))
	if err != nil {
		return nil, nil, eris.Wrap(err, "failed to create trace resource")
	}

	// The gRPC connection is established lazily, so creating the exporter doesn't block.
	exporter, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(opts.TraceEndpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, nil, eris.Wrap(err, "failed to create OTLP trace exporter")
	}

	var sampler sdktrace.Sampler
	switch opts.TraceSampleRate {
	case 1.0:
		sampler = sdktrace.AlwaysSample()
	case 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.TraceSampleRate))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Tracer(opts.ServiceName), provider.Shutdown, nil
}
