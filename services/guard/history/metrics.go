// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

var (
	validationsTotal *prometheus.CounterVec
	threatsTotal     *prometheus.CounterVec

	promOnce sync.Once
)

// initMetrics registers the prometheus counters once.
func initMetrics() {
	promOnce.Do(func() {
		validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_validations_total",
			Help: "Completed validations by verdict.",
		}, []string{"verdict"})

		threatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_threats_total",
			Help: "Completed validations by threat level.",
		}, []string{"level"})
	})
}

// recordOutcome increments the outcome counters.
func recordOutcome(outcome *datatypes.Outcome) {
	if validationsTotal == nil {
		return
	}
	validationsTotal.WithLabelValues(strings.ToLower(string(outcome.Verdict))).Inc()
	threatsTotal.WithLabelValues(outcome.Threat.String()).Inc()
}
