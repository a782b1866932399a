// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordQueryWithoutProvider(t *testing.T) {
	MeterProvider = nil
	// must not panic when metrics are disabled
	RecordQuery(context.Background(), "update", "sample-dataset", time.Second, false)
}

func TestRecordQuery(t *testing.T) {
	reader := metric.NewManualReader()
	require.NoError(t, setMeterProvider(metric.NewMeterProvider(metric.WithReader(reader))))
	defer func() { _ = Shutdown(context.Background()) }()

	RecordQuery(context.Background(), "select", "bookstore", 250*time.Millisecond, false)
	RecordQuery(context.Background(), "select", "bookstore", 50*time.Millisecond, true)

	var collected metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &collected))
	require.Len(t, collected.ScopeMetrics, 1)

	names := []string{}
	for _, m := range collected.ScopeMetrics[0].Metrics {
		names = append(names, m.Name)
	}
	require.ElementsMatch(t, []string{"sparql_requests", "sparql_request_duration"}, names)
}
