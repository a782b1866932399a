// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	metricInterfaces "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

var MeterProvider *metric.MeterProvider
var QueryHistogram metricInterfaces.Float64Histogram
var QueryCounter metricInterfaces.Int64Counter

const meterName = "fuseki"

// Export sparql request metrics over otlp grpc
func InitMetrics(endpoint string) error {
	metricExporter, err := otlpmetricgrpc.New(
		context.Background(),
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return err
	}
	return setMeterProvider(metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(10*time.Second))),
	))
}

func setMeterProvider(provider *metric.MeterProvider) error {
	// Register as global meter provider so that it can be used via otel.Meter
	// and accessed using otel.GetMeterProvider.
	otel.SetMeterProvider(provider)

	histogram, err := provider.Meter(meterName).Float64Histogram("sparql_request_duration",
		metricInterfaces.WithDescription("Time for fuseki to answer a sparql request"),
		metricInterfaces.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	counter, err := provider.Meter(meterName).Int64Counter("sparql_requests",
		metricInterfaces.WithDescription("Number of sparql requests sent to fuseki"),
	)
	if err != nil {
		return err
	}

	MeterProvider = provider
	QueryHistogram = histogram
	QueryCounter = counter
	return nil
}

// Record one sparql round trip. A no-op if metrics were never initialized
func RecordQuery(ctx context.Context, operation string, dataset string, elapsed time.Duration, failed bool) {
	if MeterProvider == nil {
		return
	}
	attrs := metricInterfaces.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("dataset", dataset),
		attribute.Bool("failed", failed),
	)
	QueryCounter.Add(ctx, 1, attrs)
	QueryHistogram.Record(ctx, elapsed.Seconds(), attrs)
}
