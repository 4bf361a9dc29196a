package config

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/mpapenbr/iracelog-sector-monitor/version"
)

type Telemetry struct {
	ctx    context.Context
	metric *metric.MeterProvider
	trace  *trace.TracerProvider
}

// Shutdown flushes and stops the providers.
// The final flush ignores cancellation of the setup context.
func (t *Telemetry) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.ctx), 5*time.Second)
	defer cancel()
	return errors.Join(t.metric.Shutdown(ctx), t.trace.Shutdown(ctx))
}

// SetupTelemetry installs global meter and tracer providers.
// Data is sent to TelemetryEndpoint via OTLP/gRPC or written to stdout if no
// endpoint is configured.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", "sectormon"),
			attribute.String("service.version", version.Version),
		))
	if err != nil {
		return nil, err
	}
	var (
		metricExporter metric.Exporter
		traceExporter  trace.SpanExporter
	)
	if TelemetryEndpoint != "" {
		if metricExporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(TelemetryEndpoint),
			otlpmetricgrpc.WithInsecure()); err != nil {
			return nil, err
		}
		if traceExporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(TelemetryEndpoint),
			otlptracegrpc.WithInsecure()); err != nil {
			return nil, err
		}
	} else {
		if metricExporter, err = stdoutmetric.New(); err != nil {
			return nil, err
		}
		if traceExporter, err = stdouttrace.New(); err != nil {
			return nil, err
		}
	}
	ret := &Telemetry{
		ctx: ctx,
		metric: metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(metricExporter,
				metric.WithInterval(15*time.Second))),
		),
		trace: trace.NewTracerProvider(
			trace.WithResource(res),
			trace.WithBatcher(traceExporter),
		),
	}
	otel.SetMeterProvider(ret.metric)
	otel.SetTracerProvider(ret.trace)
	return ret, nil
}
