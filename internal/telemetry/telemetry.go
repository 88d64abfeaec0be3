// Package telemetry configures OpenTelemetry tracing, metrics and logs.
//
// Metrics are always exported through the Prometheus registry served on
// /metrics. Traces, metrics and logs are additionally pushed over OTLP/gRPC
// when an OTLP endpoint is configured; the exporters read the standard
// OTEL_EXPORTER_OTLP_* variables themselves.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Options configures Setup.
type Options struct {
	ServiceName    string
	ServiceVersion string
	// OTLPEndpoint enables OTLP export when non-empty.
	OTLPEndpoint string
	// Registry receives the OpenTelemetry metrics for Prometheus scraping.
	Registry prometheus.Registerer
}

// Telemetry holds the installed providers.
type Telemetry struct {
	shutdowns      []func(context.Context) error
	loggerProvider *sdklog.LoggerProvider
	serviceName    string
}

// Setup installs global tracer, meter and logger providers plus the W3C
// trace-context propagator. Call Shutdown to flush exporters on exit.
func Setup(ctx context.Context, opts Options) (*Telemetry, error) {
	t := &Telemetry{serviceName: opts.ServiceName}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("building otel resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	promExporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}
	meterOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	}

	if opts.OTLPEndpoint != "" {
		exp, err := newOTLPExporters(ctx)
		if err != nil {
			return nil, err
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp.trace),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		t.shutdowns = append(t.shutdowns, tp.Shutdown)

		meterOpts = append(meterOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp.metric)))

		t.loggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exp.log)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(t.loggerProvider)
		t.shutdowns = append(t.shutdowns, t.loggerProvider.Shutdown)
	}

	mp := sdkmetric.NewMeterProvider(meterOpts...)
	otel.SetMeterProvider(mp)
	t.shutdowns = append(t.shutdowns, mp.Shutdown)

	return t, nil
}

// Logger returns base extended to also emit records through the OTLP log
// pipeline. Without an OTLP endpoint base is returned unchanged.
func (t *Telemetry) Logger(base *slog.Logger) *slog.Logger {
	if t == nil || t.loggerProvider == nil {
		return base
	}
	bridge := otelslog.NewHandler(t.serviceName, otelslog.WithLoggerProvider(t.loggerProvider))
	return slog.New(fanoutHandler{base.Handler(), bridge})
}

// Shutdown flushes and stops every installed provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	for i := len(t.shutdowns) - 1; i >= 0; i-- {
		if err := t.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil
	return errors.Join(errs...)
}

// Exporter constructors, replaced in tests.
var (
	newTraceExporter = func(ctx context.Context) (sdktrace.SpanExporter, error) {
		return otlptracegrpc.New(ctx)
	}
	newMetricExporter = func(ctx context.Context) (sdkmetric.Exporter, error) {
		return otlpmetricgrpc.New(ctx)
	}
	newLogExporter = func(ctx context.Context) (sdklog.Exporter, error) {
		return otlploggrpc.New(ctx)
	}
)

type otlpExporters struct {
	trace  sdktrace.SpanExporter
	metric sdkmetric.Exporter
	log    sdklog.Exporter
}

// newOTLPExporters creates all three OTLP exporters or none of them.
func newOTLPExporters(ctx context.Context) (*otlpExporters, error) {
	var (
		exp       otlpExporters
		shutdowns []func(context.Context) error
	)
	fail := func(err error) (*otlpExporters, error) {
		for _, shutdown := range shutdowns {
			err = errors.Join(err, shutdown(ctx))
		}
		return nil, err
	}

	traceExporter, err := newTraceExporter(ctx)
	if err != nil {
		return fail(fmt.Errorf("creating otlp trace exporter: %w", err))
	}
	exp.trace = traceExporter
	shutdowns = append(shutdowns, traceExporter.Shutdown)

	metricExporter, err := newMetricExporter(ctx)
	if err != nil {
		return fail(fmt.Errorf("creating otlp metric exporter: %w", err))
	}
	exp.metric = metricExporter
	shutdowns = append(shutdowns, metricExporter.Shutdown)

	logExporter, err := newLogExporter(ctx)
	if err != nil {
		return fail(fmt.Errorf("creating otlp log exporter: %w", err))
	}
	exp.log = logExporter
	return &exp, nil
}
