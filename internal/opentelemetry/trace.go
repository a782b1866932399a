// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace" // name this differently so it doesn't conflict with the tracer interface
	"go.opentelemetry.io/otel/trace"
)

const DefaultTracingEndpoint = "127.0.0.1:4317"

// the global tracer instance that keeps track of client spans
var Tracer trace.Tracer
var TracerProvider *sdktrace.TracerProvider

// Start a child span named after the calling function.
// If tracing was never initialized the returned span is a no-op
func SubSpanFromCtx(ctx context.Context) (context.Context, trace.Span) {
	// If tracer is nil and we aren't using open telemetry, return a dummy
	// span that fulfills the interface but doesn't do anything
	if Tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}

	pc, _, _, _ := runtime.Caller(1)
	name := runtime.FuncForPC(pc).Name()
	return Tracer.Start(ctx, name)
}

func SubSpanFromCtxWithName(ctx context.Context, name string) (context.Context, trace.Span) {
	if Tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return Tracer.Start(ctx, name)
}

// FilteringSpanProcessor filters out Testcontainers spans
type FilteringSpanProcessor struct {
	next sdktrace.SpanProcessor
}

func (f *FilteringSpanProcessor) OnStart(parent context.Context, span sdktrace.ReadWriteSpan) {
	f.next.OnStart(parent, span)
}

func (f *FilteringSpanProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	if shouldFilterOutSpan(span) {
		return
	}
	f.next.OnEnd(span)
}

func (f *FilteringSpanProcessor) Shutdown(ctx context.Context) error {
	return f.next.Shutdown(ctx)
}

func (f *FilteringSpanProcessor) ForceFlush(ctx context.Context) error {
	return f.next.ForceFlush(ctx)
}

func shouldFilterOutSpan(span sdktrace.ReadOnlySpan) bool {
	for _, attr := range span.Attributes() {
		if attr.Key == "http.url" && strings.Contains(attr.Value.AsString(), "/containers/") {
			return true // Ignore Testcontainers requests
		}
		if attr.Key == "user_agent.original" && strings.Contains(attr.Value.AsString(), "tc-go") {
			return true // Ignore requests from Testcontainers' user agent
		}
	}
	return false
}

func newTracerProvider(serviceName string, processor sdktrace.SpanProcessor) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(&FilteringSpanProcessor{next: processor}),
		sdktrace.WithResource(res),
	), nil
}

// Export spans over otlp grpc to the given collector endpoint
func InitTracer(serviceName string, endpoint string) error {
	ctx := context.Background()

	client := otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)

	otlpTraceExporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return err
	}

	provider, err := newTracerProvider(serviceName, sdktrace.NewBatchSpanProcessor(otlpTraceExporter))
	if err != nil {
		return err
	}
	setTracerProvider(serviceName, provider)

	log.Infof("OpenTelemetry Tracer initialized, sending traces to %s", endpoint)
	return nil
}

func setTracerProvider(serviceName string, provider *sdktrace.TracerProvider) {
	TracerProvider = provider
	otel.SetTracerProvider(TracerProvider)
	Tracer = TracerProvider.Tracer(serviceName)
}
