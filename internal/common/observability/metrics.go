package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"edugrant-workers/internal/common/logger"
)

// TracingOptions controls the Jaeger span exporter.
type TracingOptions struct {
	Enabled  bool
	Endpoint string
	Sampling float64
}

type Observability struct {
	serviceName    string
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	rankCounter    otelmetric.Int64Counter
	rankDuration   otelmetric.Float64Histogram
}

// New installs the global meter provider and, when enabled, the global Jaeger tracer provider.
// Setup failures are logged and leave the corresponding signal as a no-op.
func New(serviceName string, tracing TracingOptions, log logger.Logger) *Observability {
	o := &Observability{serviceName: serviceName}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(o.meterProvider)
		o.meter = o.meterProvider.Meter(serviceName)

		o.rankCounter, _ = o.meter.Int64Counter(
			"recommendations.ranked",
			otelmetric.WithDescription("Number of ranking requests processed"),
		)
		o.rankDuration, _ = o.meter.Float64Histogram(
			"recommendations.duration",
			otelmetric.WithDescription("Ranking request duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	if tracing.Enabled {
		tp, err := newTracerProvider(serviceName, tracing)
		if err != nil {
			log.Warn("failed to create jaeger tracer provider", map[string]interface{}{"error": err.Error()})
		} else {
			o.tracerProvider = tp
			otel.SetTracerProvider(tp)
		}
	}

	return o
}

// Tracer returns the service tracer; spans are dropped unless tracing is enabled.
func (o *Observability) Tracer() trace.Tracer {
	return otel.Tracer(o.serviceName)
}

// RecordRecommendation records one ranking request; outcome is "ok" or an error code.
func (o *Observability) RecordRecommendation(ctx context.Context, transport, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("outcome", outcome),
	)
	if o.rankCounter != nil {
		o.rankCounter.Add(ctx, 1, attrs)
	}
	if o.rankDuration != nil {
		o.rankDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
