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
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

func fileMeta(filename string) Metadata {
	return Metadata{
		Kind:     datatypes.KindFile,
		Filename: filename,
		Limits:   DefaultLimits(),
	}
}

// encodePNG renders a width x height PNG for decode tests.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCheckFileCleanDocument(t *testing.T) {
	out := CheckFile([]byte("plain file contents"), fileMeta("report.txt"))
	assert.Equal(t, 100.0, out.Score)
	assert.Empty(t, out.Issues)
}

func TestCheckFileDeniedExtensions(t *testing.T) {
	for _, name := range []string{"setup.exe", "payload.DLL", "run.sh", "installer.msi"} {
		out := CheckFile([]byte("x"), fileMeta(name))
		assert.Equal(t, 0.0, out.Score, "filename: %s", name)
		assert.Equal(t, datatypes.ThreatHigh, out.Threat, "filename: %s", name)
		require.Len(t, out.Issues, 1, "filename: %s", name)
		assert.Contains(t, out.Issues[0], "not permitted", "filename: %s", name)
	}
}

func TestCheckFileSizeCeiling(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxFileBytes = 16
	meta := Metadata{Kind: datatypes.KindFile, Filename: "big.txt", Limits: limits}

	out := CheckFile(make([]byte, 17), meta)
	assert.Equal(t, 30.0, out.Score)
	assert.Equal(t, datatypes.ThreatMedium, out.Threat)
}

func TestCheckFileImageDecodesAndRecordsMetadata(t *testing.T) {
	payload := encodePNG(t, 3, 2)
	meta := Metadata{Kind: datatypes.KindImage, Filename: "pic.png", Limits: DefaultLimits()}

	out := CheckFile(payload, meta)
	assert.Equal(t, 100.0, out.Score)
	assert.Empty(t, out.Issues)
	require.NotNil(t, out.Meta)
	assert.Equal(t, "png", out.Meta["image_format"])
	assert.Equal(t, 3, out.Meta["image_width"])
	assert.Equal(t, 2, out.Meta["image_height"])
	assert.Equal(t, "NRGBA", out.Meta["image_color_mode"])
}

func TestCheckFileImageUndecodable(t *testing.T) {
	meta := Metadata{Kind: datatypes.KindImage, Filename: "pic.png", Limits: DefaultLimits()}
	out := CheckFile([]byte("definitely not image bytes"), meta)

	assert.Equal(t, 40.0, out.Score)
	assert.Equal(t, datatypes.ThreatLow, out.Threat)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "could not be decoded")
}

func TestCheckFileImageDimensionCeiling(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxImageWidth = 1
	meta := Metadata{Kind: datatypes.KindImage, Filename: "pic.png", Limits: limits}

	out := CheckFile(encodePNG(t, 2, 2), meta)
	assert.Equal(t, 50.0, out.Score)
	assert.Equal(t, datatypes.ThreatLow, out.Threat)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "dimensions")
	// Metadata still travels with the finding.
	assert.Equal(t, "png", out.Meta["image_format"])
}

// A file upload whose name claims an image type is decoded even when the
// declared kind is file.
func TestCheckFileImageFilenameTriggersDecode(t *testing.T) {
	out := CheckFile([]byte("junk"), fileMeta("avatar.jpg"))
	assert.Equal(t, 40.0, out.Score)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "could not be decoded")
}
