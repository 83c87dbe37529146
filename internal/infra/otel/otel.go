package otel

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/NikolajSankovDev/zyron/internal/config"
)

type Otel interface {
	NewScope(ctx context.Context, scopeName, spanName string) (context.Context, Scope)
	Shutdown(ctx context.Context) error
}

type otelImpl struct {
	provider oteltrace.TracerProvider
	shutdown func(context.Context) error
}

func (o *otelImpl) NewScope(ctx context.Context, scopeName, spanName string) (context.Context, Scope) {
	ctx, span := o.provider.Tracer(scopeName).Start(ctx, spanName)

	return ctx, NewScope(span)
}

func (o *otelImpl) Shutdown(ctx context.Context) error {
	return o.shutdown(ctx)
}

// Noop returns spans that record nothing. Used when no collector is configured
// and in tests.
func Noop() Otel {
	return &otelImpl{
		provider: noop.NewTracerProvider(),
		shutdown: func(context.Context) error { return nil },
	}
}

func New(cfg *config.Config) Otel {
	endpoint := cfg.Otel.Endpoint
	if endpoint == "" {
		log.Info().Msg("tracing disabled, OTEL_ENDPOINT not set")
		return Noop()
	}

	exporter, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create OTLP exporter, tracing disabled")
		return Noop()
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.Otel.ServiceName),
		)),
	)

	otel.SetTracerProvider(provider)

	log.Info().Str("endpoint", endpoint).Msg("tracing enabled")

	return &otelImpl{
		provider: provider,
		shutdown: provider.Shutdown,
	}
}
