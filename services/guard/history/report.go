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
	"encoding/json"
	"time"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
	"github.com/AleutianAI/AleutianGuard/services/guard/rules"
)

// Report is the aggregate compliance report exported to the dashboard
// and ops layers. The JSON shape is a stable contract.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Summary     Summary            `json:"summary"`
	Threats     ThreatDistribution `json:"threat_distribution"`
	Rules       RuleStats          `json:"rules"`
}

// Summary contains the verdict counts and derived rates.
type Summary struct {
	Total       int     `json:"total"`
	Valid       int     `json:"valid"`
	Warning     int     `json:"warning"`
	Invalid     int     `json:"invalid"`
	Blocked     int     `json:"blocked"`
	SuccessRate float64 `json:"success_rate"`
	AvgElapsed  float64 `json:"avg_processing_time_ms"`
}

// ThreatDistribution counts outcomes by threat level.
type ThreatDistribution struct {
	None     int `json:"none"`
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// RuleStats describes the rule registry at report time.
type RuleStats struct {
	Total   int                 `json:"total"`
	Enabled int                 `json:"enabled"`
	PerRule map[string]RuleInfo `json:"per_rule"`
}

// RuleInfo is one rule's enablement snapshot.
type RuleInfo struct {
	Enabled  bool             `json:"enabled"`
	Priority int              `json:"priority"`
	Action   datatypes.Action `json:"action"`
}

// Report aggregates the ledger over the given window (zero = all).
//
// # Description
//
// Read-only: outcomes are counted, never mutated. Success rate counts
// Valid and Warning verdicts as successes; Warning content was served
// (possibly sanitized), only Invalid and Blocked were refused.
func (l *Ledger) Report(window time.Duration, ruleSnapshot []rules.Rule) Report {
	entries := l.snapshot(window)

	report := Report{
		GeneratedAt: time.Now(),
		Rules: RuleStats{
			Total:   len(ruleSnapshot),
			PerRule: make(map[string]RuleInfo, len(ruleSnapshot)),
		},
	}

	var elapsedTotal float64
	for _, entry := range entries {
		report.Summary.Total++
		elapsedTotal += entry.ElapsedMS

		switch entry.Verdict {
		case datatypes.VerdictValid:
			report.Summary.Valid++
		case datatypes.VerdictWarning:
			report.Summary.Warning++
		case datatypes.VerdictInvalid:
			report.Summary.Invalid++
		case datatypes.VerdictBlocked:
			report.Summary.Blocked++
		}

		switch entry.Threat {
		case datatypes.ThreatNone:
			report.Threats.None++
		case datatypes.ThreatLow:
			report.Threats.Low++
		case datatypes.ThreatMedium:
			report.Threats.Medium++
		case datatypes.ThreatHigh:
			report.Threats.High++
		case datatypes.ThreatCritical:
			report.Threats.Critical++
		}
	}

	if report.Summary.Total > 0 {
		successes := report.Summary.Valid + report.Summary.Warning
		report.Summary.SuccessRate = float64(successes) / float64(report.Summary.Total)
		report.Summary.AvgElapsed = elapsedTotal / float64(report.Summary.Total)
	}

	for _, rule := range ruleSnapshot {
		if rule.Enabled {
			report.Rules.Enabled++
		}
		report.Rules.PerRule[rule.ID] = RuleInfo{
			Enabled:  rule.Enabled,
			Priority: rule.Priority,
			Action:   rule.Action,
		}
	}

	return report
}

// ExportJSON renders the report as indented JSON.
func (r Report) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
