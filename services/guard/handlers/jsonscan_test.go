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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

func jsonMeta() Metadata {
	return Metadata{Kind: datatypes.KindJSON, Limits: DefaultLimits()}
}

func TestInspectJSONClean(t *testing.T) {
	doc := `{"name": "alice", "age": 30, "tags": ["a", "b"], "active": true}`
	out := InspectJSON([]byte(doc), jsonMeta())
	assert.Equal(t, 100.0, out.Score)
	assert.Equal(t, datatypes.ThreatNone, out.Threat)
	assert.Empty(t, out.Issues)
}

func TestInspectJSONParseFailure(t *testing.T) {
	out := InspectJSON([]byte(`{not json`), jsonMeta())
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, datatypes.ThreatLow, out.Threat)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "could not be parsed")
}

func TestInspectJSONPollutionKey(t *testing.T) {
	doc := `{"__proto__": {"isAdmin": true}}`
	out := InspectJSON([]byte(doc), jsonMeta())
	assert.Equal(t, 30.0, out.Score)
	assert.Equal(t, datatypes.ThreatMedium, out.Threat)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], `"__proto__"`)
	assert.Contains(t, out.Issues[0], "$.__proto__")
}

func TestInspectJSONInjectionInValue(t *testing.T) {
	doc := `{"q": "1' OR '1'='1"}`
	out := InspectJSON([]byte(doc), jsonMeta())
	assert.Equal(t, 40.0, out.Score)
	assert.Equal(t, datatypes.ThreatMedium, out.Threat)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "sql_injection")
	assert.Contains(t, out.Issues[0], "$.q")
}

func TestInspectJSONNestedPath(t *testing.T) {
	doc := `{"items": [{"x": "<script>alert(1)</script>"}]}`
	out := InspectJSON([]byte(doc), jsonMeta())
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "xss")
	assert.Contains(t, out.Issues[0], "$.items[0].x")
}

// Object keys are visited in sorted order, so the same document always
// produces the same issue sequence.
func TestInspectJSONDeterministicOrdering(t *testing.T) {
	doc := `{"prototype": 1, "constructor": 2}`
	for i := 0; i < 10; i++ {
		out := InspectJSON([]byte(doc), jsonMeta())
		require.Len(t, out.Issues, 2)
		assert.Contains(t, out.Issues[0], "$.constructor")
		assert.Contains(t, out.Issues[1], "$.prototype")
	}
}

func TestInspectJSONAggregatesFindings(t *testing.T) {
	doc := `{"__proto__": {}, "cmd": "x; rm -rf /"}`
	out := InspectJSON([]byte(doc), jsonMeta())
	assert.Equal(t, 30.0, out.Score)
	assert.Equal(t, datatypes.ThreatMedium, out.Threat)
	assert.Len(t, out.Issues, 2)
}
