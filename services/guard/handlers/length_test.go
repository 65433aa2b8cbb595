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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

func TestCheckLengthWithinLimit(t *testing.T) {
	out := CheckLength([]byte("short text"), textMeta())
	assert.Equal(t, 100.0, out.Score)
	assert.Empty(t, out.Issues)
}

func TestCheckLengthTextViolation(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxTextLen = 10
	meta := Metadata{Kind: datatypes.KindText, Limits: limits}

	out := CheckLength([]byte(strings.Repeat("a", 11)), meta)
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, datatypes.ThreatLow, out.Threat)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "exceeds limit")
}

// Textual kinds are measured in runes, not bytes.
func TestCheckLengthCountsRunes(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxTextLen = 4
	meta := Metadata{Kind: datatypes.KindText, Limits: limits}

	// Four runes, twelve bytes.
	out := CheckLength([]byte("日本語字"), meta)
	assert.Equal(t, 100.0, out.Score)
}

func TestCheckLengthBinaryKinds(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxFileBytes = 8
	limits.MaxImageBytes = 8
	limits.MaxVideoBytes = 8
	limits.MaxAudioBytes = 8

	payload := make([]byte, 9)
	for _, kind := range []datatypes.ContentKind{
		datatypes.KindFile, datatypes.KindImage,
		datatypes.KindVideo, datatypes.KindAudio,
	} {
		out := CheckLength(payload, Metadata{Kind: kind, Limits: limits})
		assert.Equal(t, 0.0, out.Score, "kind: %s", kind)
		assert.Equal(t, datatypes.ThreatLow, out.Threat, "kind: %s", kind)
	}
}

func TestCheckLengthZeroLimitDisablesCheck(t *testing.T) {
	meta := Metadata{Kind: datatypes.KindText, Limits: Limits{}}
	out := CheckLength([]byte(strings.Repeat("a", 1_000_000)), meta)
	assert.Equal(t, 100.0, out.Score)
	assert.Empty(t, out.Issues)
}
