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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// pollutionKeys are object keys associated with prototype-pollution
// style attacks on downstream JavaScript consumers.
var pollutionKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// InspectJSON parses JSON and walks every key and value.
//
// # Description
//
// Two classes of findings, each with the offending path recorded in
// dotted/bracket form:
//
//   - A denylisted key (prototype pollution) lowers the score to 30.
//   - A string value matching an injection family lowers the score to 40.
//
// Both are threat Medium. A parse failure is an input error, not an
// attack signal: score 0, threat Low, single issue.
func InspectJSON(content []byte, meta Metadata) Outcome {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return Outcome{
			Issues: []string{fmt.Sprintf("JSON could not be parsed: %v", err)},
			Score:  0,
			Threat: datatypes.ThreatLow,
		}
	}

	out := clean()
	walkJSON(doc, "$", &out)
	return out
}

// walkJSON recurses through the decoded document, recording findings.
func walkJSON(node any, path string, out *Outcome) {
	switch v := node.(type) {
	case map[string]any:
		// Deterministic traversal: identical documents must yield
		// identical issue ordering regardless of map iteration order.
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			child := v[key]
			childPath := path + "." + key
			if pollutionKeys[strings.ToLower(key)] {
				out.Issues = append(out.Issues, fmt.Sprintf("denylisted key %q at %s", key, childPath))
				if out.Score > 30 {
					out.Score = 30
				}
				out.Threat = datatypes.MaxThreat(out.Threat, datatypes.ThreatMedium)
			}
			walkJSON(child, childPath, out)
		}
	case []any:
		for i, child := range v {
			walkJSON(child, fmt.Sprintf("%s[%d]", path, i), out)
		}
	case string:
		for _, family := range matchInjectionFamilies(v) {
			out.Issues = append(out.Issues, fmt.Sprintf("potential %s pattern in value at %s", family, path))
			if out.Score > 40 {
				out.Score = 40
			}
			out.Threat = datatypes.MaxThreat(out.Threat, datatypes.ThreatMedium)
		}
	}
}
