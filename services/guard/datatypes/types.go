// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the shared value types of the content
// validation pipeline: strictness levels, content kinds, threat levels,
// rule actions, verdicts, and the ValidationOutcome returned to callers.
//
// All types here are plain values with no behavior beyond parsing and
// formatting, so every guard package can depend on them without cycles.
package datatypes

import (
	"fmt"
	"strings"
)

// StrictnessLevel is the caller-selected inspection intensity.
//
// # Description
//
// Gates which rules are eligible to run: a rule applies only when its
// MinStrictness is less than or equal to the requested level. The order
// Basic < Standard < Strict < Paranoid is an explicit total order on the
// integer values below; it is part of the public contract and must not
// be changed by reordering the constants.
type StrictnessLevel int

const (
	StrictnessBasic StrictnessLevel = iota
	StrictnessStandard
	StrictnessStrict
	StrictnessParanoid
)

// String returns the lowercase name of the level.
func (s StrictnessLevel) String() string {
	switch s {
	case StrictnessBasic:
		return "basic"
	case StrictnessStandard:
		return "standard"
	case StrictnessStrict:
		return "strict"
	case StrictnessParanoid:
		return "paranoid"
	default:
		return "unknown"
	}
}

// ParseStrictness parses a strictness level name (case-insensitive).
//
// # Outputs
//
//   - StrictnessLevel: The parsed level.
//   - error: Non-nil if the name is not a known level.
func ParseStrictness(name string) (StrictnessLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "basic":
		return StrictnessBasic, nil
	case "standard":
		return StrictnessStandard, nil
	case "strict":
		return StrictnessStrict, nil
	case "paranoid":
		return StrictnessParanoid, nil
	default:
		return StrictnessStandard, fmt.Errorf("unknown strictness level %q", name)
	}
}

// ContentKind classifies the payload being validated.
type ContentKind string

const (
	KindText        ContentKind = "text"
	KindHTML        ContentKind = "html"
	KindJSON        ContentKind = "json"
	KindImage       ContentKind = "image"
	KindVideo       ContentKind = "video"
	KindAudio       ContentKind = "audio"
	KindFile        ContentKind = "file"
	KindURL         ContentKind = "url"
	KindEmail       ContentKind = "email"
	KindAPIResponse ContentKind = "api_response"
	KindUserInput   ContentKind = "user_input"
)

// ParseKind parses a content kind name (case-insensitive).
func ParseKind(name string) (ContentKind, error) {
	kind := ContentKind(strings.ToLower(strings.TrimSpace(name)))
	switch kind {
	case KindText, KindHTML, KindJSON, KindImage, KindVideo, KindAudio,
		KindFile, KindURL, KindEmail, KindAPIResponse, KindUserInput:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown content kind %q", name)
	}
}

// ThreatLevel is an escalating severity classification, independent of
// the numeric safety score.
//
// # Description
//
// Within a single validation run the threat level only escalates: the
// aggregate is the maximum of the levels reported by the rules that ran.
// The order None < Low < Medium < High < Critical is explicit in the
// integer values and is part of the public contract.
type ThreatLevel int

const (
	ThreatNone ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

// String returns the lowercase name of the threat level.
func (t ThreatLevel) String() string {
	switch t {
	case ThreatNone:
		return "none"
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	case ThreatCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MaxThreat returns the higher of two threat levels.
func MaxThreat(a, b ThreatLevel) ThreatLevel {
	if a > b {
		return a
	}
	return b
}

// Action is the disposition a triggered rule requests.
type Action string

const (
	// ActionAllow records issues without transforming or halting.
	ActionAllow Action = "ALLOW"

	// ActionSanitize transforms the content and continues the pipeline.
	ActionSanitize Action = "SANITIZE"

	// ActionBlock halts the pipeline when the rule reports issues.
	ActionBlock Action = "BLOCK"

	// ActionFlag contributes to score and threat without halting.
	ActionFlag Action = "FLAG"
)

// ParseAction parses a rule action name (case-insensitive).
func ParseAction(name string) (Action, error) {
	action := Action(strings.ToUpper(strings.TrimSpace(name)))
	switch action {
	case ActionAllow, ActionSanitize, ActionBlock, ActionFlag:
		return action, nil
	default:
		return "", fmt.Errorf("unknown rule action %q", name)
	}
}

// Verdict is the caller-facing final classification of a validation run.
//
// Verdicts are derived from the aggregate score and threat level; they
// are never set directly by a rule. The only path to VerdictBlocked is a
// BLOCK-action rule that reported at least one issue.
type Verdict string

const (
	VerdictValid   Verdict = "VALID"
	VerdictWarning Verdict = "WARNING"
	VerdictInvalid Verdict = "INVALID"
	VerdictBlocked Verdict = "BLOCKED"
)
