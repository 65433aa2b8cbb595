// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the per-rule validation algorithms.
//
// # Description
//
// Each handler is a pure function from (content, metadata) to an
// Outcome. Handlers never retain references to the content they are
// given and never touch shared state; the only "side effect" a handler
// may have is returning a transformed copy of the content in
// Outcome.Sanitized. This keeps every handler independently testable
// and lets the engine run many validations concurrently.
//
// # Thread Safety
//
// All handlers and pattern tables are safe for concurrent use. Regexes
// are compiled once at package init.
package handlers

import (
	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// Rule handler IDs. The engine's dispatch table and the default
// registry both key on these.
const (
	RuleLengthCheck     = "length_check"
	RuleHTMLSanitize    = "html_sanitize"
	RuleInjectionScan   = "injection_scan"
	RuleFileCheck       = "file_check"
	RuleURLCheck        = "url_check"
	RuleJSONInspect     = "json_inspect"
	RuleLexicalFilter   = "lexical_filter"
	RuleBinarySignature = "binary_signature"
)

// Metadata is the per-call context threaded into every handler.
type Metadata struct {
	// Kind is the declared content kind.
	Kind datatypes.ContentKind

	// Strictness is the requested inspection level. A few handlers apply
	// stricter policy checks at Strict and above.
	Strictness datatypes.StrictnessLevel

	// Filename is the original upload filename, when known.
	Filename string

	// Endpoint names the API endpoint for api_response content.
	Endpoint string

	// Limits holds the size/length ceilings for this call.
	Limits Limits

	// Extra carries caller-provided metadata, passed through untouched.
	Extra map[string]any
}

// Outcome is the result of one handler invocation.
type Outcome struct {
	// Issues describes what the handler found; empty means clean.
	Issues []string

	// Score is the handler's safety score in [0, 100]. The engine
	// aggregates with min(), so 100 means "no opinion".
	Score float64

	// Threat is the handler's threat classification.
	Threat datatypes.ThreatLevel

	// Sanitized is the transformed content, nil when unchanged. When
	// non-nil the engine threads it into every subsequent rule.
	Sanitized []byte

	// Meta is side-channel data (image format, spam score, ...) merged
	// into the final outcome's metadata; it never affects the score.
	Meta map[string]any
}

// clean returns the no-findings outcome.
func clean() Outcome {
	return Outcome{Score: 100, Threat: datatypes.ThreatNone}
}

// Func is the handler signature.
//
// Handlers must not panic for any input; a panic is treated as a rule
// execution failure by the engine and converted into a synthetic
// medium-severity outcome.
type Func func(content []byte, meta Metadata) Outcome

// Limits holds size and length ceilings per content kind.
type Limits struct {
	MaxTextLen     int   // characters
	MaxURLLen      int   // characters
	MaxFileBytes   int64 // generic file payloads
	MaxImageBytes  int64
	MaxVideoBytes  int64
	MaxAudioBytes  int64
	MaxImageWidth  int // pixels
	MaxImageHeight int // pixels
}

// DefaultLimits returns the production defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxTextLen:     50_000,
		MaxURLLen:      2_048,
		MaxFileBytes:   10 << 20,  // 10 MiB
		MaxImageBytes:  5 << 20,   // 5 MiB
		MaxVideoBytes:  100 << 20, // 100 MiB
		MaxAudioBytes:  50 << 20,  // 50 MiB
		MaxImageWidth:  8_192,
		MaxImageHeight: 8_192,
	}
}

// Dispatch returns the default rule ID to handler mapping.
//
// # Description
//
// The returned map is freshly allocated so callers (the engine, tests)
// can override individual entries without affecting each other. Keeping
// dispatch in a table instead of a switch makes every handler
// independently replaceable and testable.
func Dispatch() map[string]Func {
	return map[string]Func{
		RuleLengthCheck:     CheckLength,
		RuleHTMLSanitize:    SanitizeHTML,
		RuleInjectionScan:   ScanInjection,
		RuleFileCheck:       CheckFile,
		RuleURLCheck:        CheckURL,
		RuleJSONInspect:     InspectJSON,
		RuleLexicalFilter:   FilterLexical,
		RuleBinarySignature: ScanBinarySignature,
	}
}
