// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"regexp"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// patternFamily groups the regexes for one class of injection attack.
// A family triggers once no matter how many of its patterns match.
type patternFamily struct {
	name     string
	patterns []*regexp.Regexp
}

// The three injection families. All patterns are case-insensitive and
// multiline; none is susceptible to catastrophic backtracking (no
// nested quantifiers over overlapping classes).
var injectionFamilies = []patternFamily{
	{
		name: "xss",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)<script\b`),
			regexp.MustCompile(`(?im)(?:java|vb)script\s*:`),
			regexp.MustCompile(`(?im)\bon[a-z]+\s*=`),
			regexp.MustCompile(`(?im)\beval\s*\(`),
			regexp.MustCompile(`(?im)<(?:iframe|object|embed|style)\b`),
			regexp.MustCompile(`(?im)\bdocument\s*\.\s*(?:cookie|location|write)`),
		},
	},
	{
		name: "sql_injection",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)\bunion\s+(?:all\s+)?select\b`),
			regexp.MustCompile(`(?im)\b(?:select|insert|update|delete|drop)\b.{0,40}\b(?:from|into|table|set|where)\b`),
			regexp.MustCompile(`(?im)(?:--|#|/\*)\s*$`),
			regexp.MustCompile(`(?im)'\s*(?:or|and)\s+'?\d+'?\s*=\s*'?\d+`),
			regexp.MustCompile(`(?im)'\s*or\s+'[^']*'\s*=\s*'`),
			regexp.MustCompile(`(?im)\bexec(?:ute)?\s*\(\s*(?:xp|sp)_`),
		},
	},
	{
		name: "command_injection",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)[;&|]\s*(?:rm|cat|curl|wget|nc|bash|sh|chmod|chown|mkfs)\b`),
			regexp.MustCompile("(?im)`[^`]+`"),
			regexp.MustCompile(`(?im)\$\([^)]+\)`),
			regexp.MustCompile(`(?im)\|\s*(?:sh|bash|zsh)\b`),
			regexp.MustCompile(`(?im)>\s*/dev/(?:null|tcp)`),
			regexp.MustCompile(`(?im)\bdd\s+if=`),
		},
	},
}

// matchInjectionFamilies returns the names of the families that match.
func matchInjectionFamilies(s string) []string {
	var matched []string
	for _, family := range injectionFamilies {
		for _, re := range family.patterns {
			if re.MatchString(s) {
				matched = append(matched, family.name)
				break
			}
		}
	}
	return matched
}

// ScanInjection detects XSS, SQL, and command injection markers.
//
// # Description
//
// Any family match yields score 0 and threat High, with one issue per
// distinct family matched. In the default registry this rule runs after
// the HTML sanitizer, so it scans the already-cleaned form and does not
// double-flag content the sanitizer neutralized.
func ScanInjection(content []byte, meta Metadata) Outcome {
	matched := matchInjectionFamilies(string(content))
	if len(matched) == 0 {
		return clean()
	}

	issues := make([]string, 0, len(matched))
	for _, name := range matched {
		issues = append(issues, fmt.Sprintf("potential %s pattern detected", name))
	}
	return Outcome{
		Issues: issues,
		Score:  0,
		Threat: datatypes.ThreatHigh,
	}
}
