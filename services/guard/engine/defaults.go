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
	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
	"github.com/AleutianAI/AleutianGuard/services/guard/handlers"
	"github.com/AleutianAI/AleutianGuard/services/guard/rules"
)

// DefaultRules returns the built-in rule set.
//
// # Description
//
// Priorities put cheap structural checks (length, file type) before the
// expensive content-rewriting rules (HTML sanitize, image decode), and
// the HTML sanitizer before the injection scan so the scan sees the
// already-cleaned form and does not double-flag neutralized markup.
//
// The binary signature scan is gated at Strict: routine Standard-level
// traffic skips it, upload paths opt in by validating at Strict.
func DefaultRules() []rules.Rule {
	textual := []datatypes.ContentKind{
		datatypes.KindText, datatypes.KindHTML, datatypes.KindJSON,
		datatypes.KindURL, datatypes.KindEmail, datatypes.KindAPIResponse,
		datatypes.KindUserInput,
	}
	everything := append([]datatypes.ContentKind{
		datatypes.KindImage, datatypes.KindVideo, datatypes.KindAudio, datatypes.KindFile,
	}, textual...)

	return []rules.Rule{
		{
			ID:            handlers.RuleLengthCheck,
			Name:          "Length Check",
			Kinds:         everything,
			MinStrictness: datatypes.StrictnessBasic,
			Enabled:       true,
			Priority:      10,
			Action:        datatypes.ActionBlock,
		},
		{
			ID:   handlers.RuleFileCheck,
			Name: "File Type Check",
			Kinds: []datatypes.ContentKind{
				datatypes.KindFile, datatypes.KindImage,
				datatypes.KindVideo, datatypes.KindAudio,
			},
			MinStrictness: datatypes.StrictnessBasic,
			Enabled:       true,
			Priority:      15,
			Action:        datatypes.ActionBlock,
		},
		{
			ID:            handlers.RuleBinarySignature,
			Name:          "Binary Signature Scan",
			Kinds:         []datatypes.ContentKind{datatypes.KindFile, datatypes.KindImage},
			MinStrictness: datatypes.StrictnessStrict,
			Enabled:       true,
			Priority:      20,
			Action:        datatypes.ActionBlock,
		},
		{
			ID:            handlers.RuleURLCheck,
			Name:          "URL Check",
			Kinds:         []datatypes.ContentKind{datatypes.KindURL},
			MinStrictness: datatypes.StrictnessBasic,
			Enabled:       true,
			Priority:      30,
			Action:        datatypes.ActionFlag,
		},
		{
			ID:            handlers.RuleJSONInspect,
			Name:          "JSON Structure Inspection",
			Kinds:         []datatypes.ContentKind{datatypes.KindJSON, datatypes.KindAPIResponse},
			MinStrictness: datatypes.StrictnessBasic,
			Enabled:       true,
			Priority:      30,
			Action:        datatypes.ActionFlag,
		},
		{
			ID:            handlers.RuleHTMLSanitize,
			Name:          "HTML Sanitizer",
			Kinds:         []datatypes.ContentKind{datatypes.KindHTML},
			MinStrictness: datatypes.StrictnessBasic,
			Enabled:       true,
			Priority:      40,
			Action:        datatypes.ActionSanitize,
		},
		{
			ID:            handlers.RuleInjectionScan,
			Name:          "Injection Scan",
			Kinds:         textual,
			MinStrictness: datatypes.StrictnessBasic,
			Enabled:       true,
			Priority:      50,
			Action:        datatypes.ActionBlock,
		},
		{
			ID:   handlers.RuleLexicalFilter,
			Name: "Lexical Content Filter",
			Kinds: []datatypes.ContentKind{
				datatypes.KindText, datatypes.KindUserInput, datatypes.KindEmail,
			},
			MinStrictness: datatypes.StrictnessStandard,
			Enabled:       true,
			Priority:      60,
			Action:        datatypes.ActionSanitize,
		},
	}
}
