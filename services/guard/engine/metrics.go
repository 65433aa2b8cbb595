// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for validation operations.
var (
	tracer = otel.Tracer("aleutian.guard.engine")
	meter  = otel.Meter("aleutian.guard.engine")
)

var (
	validateTotal    metric.Int64Counter
	validateDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() {
	metricsOnce.Do(func() {
		var err error

		validateTotal, err = meter.Int64Counter(
			"guard_validate_total",
			metric.WithDescription("Total number of validate calls"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		validateDuration, err = meter.Float64Histogram(
			"guard_validate_duration_seconds",
			metric.WithDescription("Duration of validate calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
}

// recordValidate records one completed validate call.
func recordValidate(ctx context.Context, verdict string, cached bool, seconds float64) {
	if metricsErr != nil || validateTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("verdict", verdict),
		attribute.Bool("cache_hit", cached),
	)
	validateTotal.Add(ctx, 1, attrs)
	validateDuration.Record(ctx, seconds, attrs)
}
