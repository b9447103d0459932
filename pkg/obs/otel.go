package obs

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for datum instrumentation.
const defaultTracerName = "datum"

// Container is the observability surface of a container; any *datum.Datum[T]
// satisfies it.
type Container interface {
	Name() string
	ChangeCount() uint64
	SubscriberCount() int
}

// TracerConfig configures the span helpers.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "datum").
	TracerName string

	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// TracerOption configures the span helpers.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithSpanAttributes adds attributes to every span.
func WithSpanAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer wraps container writes and host dispatches in OpenTelemetry spans.
//
// The tracer comes from the global tracer provider. Configure that in your
// main() before serving:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracer struct {
	config TracerConfig
	tracer trace.Tracer
}

// NewTracer resolves a tracer from the global provider.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	return &Tracer{
		config: config,
		tracer: otel.Tracer(config.TracerName),
	}
}

// TraceSet runs write under a span named "datum.set". The span records the
// container name, whether the write changed the value and the subscriber
// fan-out after the write. A panic inside write is recorded on the span as
// an error and re-raised.
func (t *Tracer) TraceSet(ctx context.Context, d Container, write func()) {
	_, span := t.tracer.Start(ctx, "datum.set",
		trace.WithAttributes(t.config.Attributes...),
		trace.WithAttributes(attribute.String("datum.name", d.Name())),
	)
	defer span.End()

	before := d.ChangeCount()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			panic(r)
		}
		span.SetAttributes(
			attribute.Bool("datum.changed", d.ChangeCount() != before),
			attribute.Int("datum.subscribers", d.SubscriberCount()),
		)
		span.SetStatus(codes.Ok, "")
	}()

	write()
}

// TraceDispatch wraps a host dispatch callback in a span. The returned
// function is what you hand to the runtime; the span covers the callback's
// execution on the loop goroutine, with the action name recorded in both
// the span name and the datum.action attribute. A panic inside fn is
// recorded on the span and re-raised for the runtime's recovery to log.
func (t *Tracer) TraceDispatch(ctx context.Context, action string, fn func()) func() {
	spanName := "datum.dispatch"
	if action != "" {
		spanName = fmt.Sprintf("datum.%s", action)
	}

	return func() {
		_, span := t.tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(t.config.Attributes...),
			trace.WithAttributes(attribute.String("datum.action", action)),
		)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				panic(r)
			}
			span.SetStatus(codes.Ok, "")
		}()

		fn()
	}
}
