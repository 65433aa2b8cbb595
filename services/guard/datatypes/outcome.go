// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// Outcome is the unit returned to callers for one validation run.
//
// # Description
//
// Outcome aggregates everything the pipeline learned about one content
// item at one strictness level. Two invariants hold for every run:
//
//   - Score starts at 100.0 and is only ever lowered (min aggregation).
//   - Threat starts at ThreatNone and is only ever raised (max aggregation).
//
// # Thread Safety
//
// Outcome is treated as immutable once returned; cached outcomes are
// shared between callers and must not be mutated.
type Outcome struct {
	// ContentID is the deterministic fingerprint of the raw content.
	ContentID string `json:"content_id"`

	// Kind is the content kind the caller declared.
	Kind ContentKind `json:"content_kind"`

	// Strictness is the inspection level the caller requested.
	Strictness StrictnessLevel `json:"strictness"`

	// Verdict is the final classification (derived, never set directly).
	Verdict Verdict `json:"verdict"`

	// Threat is the highest threat level any rule reported.
	Threat ThreatLevel `json:"threat"`

	// Score is the aggregate safety score in [0, 100].
	Score float64 `json:"score"`

	// Issues lists every issue reported, in rule execution order.
	Issues []string `json:"issues"`

	// Sanitized is the transformed content, nil when unchanged.
	Sanitized []byte `json:"sanitized_content,omitempty"`

	// RulesApplied lists the IDs of the rules that ran, in order.
	RulesApplied []string `json:"rules_applied"`

	// Metadata carries rule side-channel data (image format, dimensions,
	// spam score, ...) that does not participate in scoring.
	Metadata map[string]any `json:"metadata,omitempty"`

	// ElapsedMS is the wall-clock duration of the run in milliseconds.
	ElapsedMS float64 `json:"elapsed_ms"`

	// CreatedAt is when the run completed.
	CreatedAt time.Time `json:"created_at"`
}
