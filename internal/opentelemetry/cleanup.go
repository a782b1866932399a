// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"
	"errors"
	"fmt"
)

// Flush and stop the tracer and meter providers, returning every
// failure. Calling it when telemetry was never started is a no-op
func Shutdown(ctx context.Context) error {
	var errs []error

	if TracerProvider != nil {
		if err := TracerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing spans; is the trace collector running?: %w", err))
		}
		if err := TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping tracer provider: %w", err))
		}
		TracerProvider = nil
		Tracer = nil
	}

	if MeterProvider != nil {
		if err := MeterProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing query metrics; is the metric collector running?: %w", err))
		}
		if err := MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping meter provider: %w", err))
		}
		MeterProvider = nil
		QueryCounter = nil
		QueryHistogram = nil
	}

	return errors.Join(errs...)
}
