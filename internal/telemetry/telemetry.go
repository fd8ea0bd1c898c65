// Package telemetry configures the OpenTelemetry providers. Metrics always
// flow into a Prometheus registry; traces, metrics and logs are also
// exported over OTLP gRPC when an endpoint is configured.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

const (
	serviceName          = "stockbell"
	metricExportInterval = 30 * time.Second
)

// Config controls telemetry setup.
type Config struct {
	// OTLPEndpoint is an OTLP gRPC endpoint URL such as
	// http://localhost:4317. Empty disables OTLP export.
	OTLPEndpoint string
	Version      string
	UserAgent    string
}

// OTLP exporter constructors, swapped in tests.
var (
	newTraceExporter = func(ctx context.Context, endpoint string, dial grpc.DialOption) (sdktrace.SpanExporter, error) {
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(endpoint),
			otlptracegrpc.WithDialOption(dial),
		)
	}
	newMetricExporter = func(ctx context.Context, endpoint string, dial grpc.DialOption) (sdkmetric.Exporter, error) {
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpointURL(endpoint),
			otlpmetricgrpc.WithDialOption(dial),
		)
	}
	newLogExporter = func(ctx context.Context, endpoint string, dial grpc.DialOption) (sdklog.Exporter, error) {
		return otlploggrpc.New(ctx,
			otlploggrpc.WithEndpointURL(endpoint),
			otlploggrpc.WithDialOption(dial),
		)
	}
)

// Providers holds the configured providers. Call Shutdown on exit.
type Providers struct {
	Tracer   *sdktrace.TracerProvider
	Meter    *sdkmetric.MeterProvider
	Registry *prometheus.Registry

	logs *sdklog.LoggerProvider
}

// Setup builds the providers and installs the tracer provider and
// propagator globally.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", cfg.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promExporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	}
	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	p := &Providers{Registry: reg}

	if cfg.OTLPEndpoint != "" {
		dial := grpc.WithUserAgent(cfg.UserAgent)
		// Exporters built so far; shut down if a later one fails.
		var built []func(context.Context) error
		abort := func(err error) (*Providers, error) {
			for _, shutdown := range built {
				_ = shutdown(ctx)
			}
			return nil, err
		}

		traceExp, err := newTraceExporter(ctx, cfg.OTLPEndpoint, dial)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
		built = append(built, traceExp.Shutdown)
		traceOpts = append(traceOpts, sdktrace.WithBatcher(traceExp))

		metricExp, err := newMetricExporter(ctx, cfg.OTLPEndpoint, dial)
		if err != nil {
			return abort(fmt.Errorf("creating OTLP metric exporter: %w", err))
		}
		reader := sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(metricExportInterval))
		built = append(built, reader.Shutdown)
		meterOpts = append(meterOpts, sdkmetric.WithReader(reader))

		logExp, err := newLogExporter(ctx, cfg.OTLPEndpoint, dial)
		if err != nil {
			return abort(fmt.Errorf("creating OTLP log exporter: %w", err))
		}
		p.logs = sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		)
	}

	p.Tracer = sdktrace.NewTracerProvider(traceOpts...)
	p.Meter = sdkmetric.NewMeterProvider(meterOpts...)

	otel.SetTracerProvider(p.Tracer)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return p, nil
}

// LogHandler returns an slog handler that ships records over OTLP, or nil
// when OTLP export is disabled.
func (p *Providers) LogHandler() slog.Handler {
	if p.logs == nil {
		return nil
	}
	return otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(p.logs))
}

// Shutdown flushes and stops every provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.logs != nil {
		errs = append(errs, p.logs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
