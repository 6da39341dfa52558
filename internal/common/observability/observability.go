package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	queryCounter   otelmetric.Int64Counter
	queryDuration  otelmetric.Float64Histogram
}

type options struct {
	jaegerEndpoint string
	registerer     promclient.Registerer
	spanProcessors []sdktrace.SpanProcessor
	setGlobal      bool
}

type Option func(*options)

// WithJaegerEndpoint exports spans to a jaeger collector.
func WithJaegerEndpoint(endpoint string) Option {
	return func(o *options) { o.jaegerEndpoint = endpoint }
}

// WithRegisterer sets where the otel prometheus exporter registers its collector.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// WithGlobalProviders installs the providers as the otel globals.
func WithGlobalProviders() Option {
	return func(o *options) { o.setGlobal = true }
}

func New(serviceName string, opts ...Option) *Observability {
	o := &options{registerer: promclient.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}

	obs := &Observability{}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, sp := range o.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	if o.jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(o.jaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
		}
	}
	obs.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	obs.tracer = obs.tracerProvider.Tracer(serviceName)

	exporter, err := prometheus.New(prometheus.WithRegisterer(o.registerer))
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return obs
	}

	obs.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	obs.meter = obs.meterProvider.Meter(serviceName)

	if o.setGlobal {
		otel.SetMeterProvider(obs.meterProvider)
		otel.SetTracerProvider(obs.tracerProvider)
	}

	obs.queryCounter, _ = obs.meter.Int64Counter(
		"pipeline.queries",
		otelmetric.WithDescription("Number of questions processed"),
	)

	obs.queryDuration, _ = obs.meter.Float64Histogram(
		"pipeline.duration",
		otelmetric.WithDescription("Question processing duration"),
		otelmetric.WithUnit("ms"),
	)

	return obs
}

// Tracer returns the tracer spans for pipeline stages are started from.
func (o *Observability) Tracer() trace.Tracer {
	if o.tracer == nil {
		return otel.Tracer("finsight")
	}
	return o.tracer
}

func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.Tracer().Start(ctx, name, opts...)
}

func (o *Observability) RecordQuery(ctx context.Context, status string) {
	if o.queryCounter != nil {
		o.queryCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordQueryDuration(ctx context.Context, duration time.Duration, status string) {
	if o.queryDuration != nil {
		o.queryDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
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
