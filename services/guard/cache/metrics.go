// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for cache operations.
var meter = otel.Meter("aleutian.guard.cache")

var (
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	cacheEvictions metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the counters. Safe to call multiple times;
// metric registration failure degrades to no-op counters.
func initMetrics() {
	metricsOnce.Do(func() {
		var err error

		cacheHits, err = meter.Int64Counter(
			"guard_cache_hits_total",
			metric.WithDescription("Total number of validation cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"guard_cache_misses_total",
			metric.WithDescription("Total number of validation cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheEvictions, err = meter.Int64Counter(
			"guard_cache_evictions_total",
			metric.WithDescription("Total number of validation cache evictions"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
}

func recordHit() {
	if metricsErr == nil && cacheHits != nil {
		cacheHits.Add(context.Background(), 1)
	}
}

func recordMiss() {
	if metricsErr == nil && cacheMisses != nil {
		cacheMisses.Add(context.Background(), 1)
	}
}

func recordEviction() {
	if metricsErr == nil && cacheEvictions != nil {
		cacheEvictions.Add(context.Background(), 1)
	}
}
