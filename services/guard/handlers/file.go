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
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// deniedExtensions are rejected outright regardless of content.
var deniedExtensions = map[string]bool{
	".exe": true, ".dll": true, ".bat": true, ".cmd": true, ".com": true,
	".scr": true, ".pif": true, ".msi": true, ".vbs": true, ".ps1": true,
	".jar": true, ".sh": true, ".app": true, ".deb": true, ".rpm": true,
}

// allowedImageFormats is the decode allow-list for image payloads.
var allowedImageFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// CheckFile validates file and image payloads.
//
// # Description
//
// Checks run in cost order:
//
//  1. Extension denylist: a denied extension is score 0, threat High.
//  2. Byte-size ceiling for the kind: overflow is score 30, threat Medium.
//  3. For image kinds, decode the header: unknown or disallowed formats
//     are penalized, and pixel dimensions over the ceiling are score 50,
//     threat Low. Format, dimensions, and color mode are recorded as
//     metadata; they never feed the score.
func CheckFile(content []byte, meta Metadata) Outcome {
	if ext := strings.ToLower(filepath.Ext(meta.Filename)); ext != "" && deniedExtensions[ext] {
		return Outcome{
			Issues: []string{fmt.Sprintf("file extension %s is not permitted", ext)},
			Score:  0,
			Threat: datatypes.ThreatHigh,
		}
	}

	limit := meta.Limits.MaxFileBytes
	if meta.Kind == datatypes.KindImage {
		limit = meta.Limits.MaxImageBytes
	}
	if limit > 0 && int64(len(content)) > limit {
		return Outcome{
			Issues: []string{fmt.Sprintf("payload size %d exceeds limit %d bytes", len(content), limit)},
			Score:  30,
			Threat: datatypes.ThreatMedium,
		}
	}

	if meta.Kind == datatypes.KindImage || isImageFilename(meta.Filename) {
		return inspectImage(content, meta)
	}
	return clean()
}

// isImageFilename reports whether the filename claims an image type.
func isImageFilename(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	default:
		return false
	}
}

// inspectImage decodes the image header and validates format and size.
func inspectImage(content []byte, meta Metadata) Outcome {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return Outcome{
			Issues: []string{fmt.Sprintf("image could not be decoded: %v", err)},
			Score:  40,
			Threat: datatypes.ThreatLow,
		}
	}

	side := map[string]any{
		"image_format":     format,
		"image_width":      cfg.Width,
		"image_height":     cfg.Height,
		"image_color_mode": colorModeName(cfg.ColorModel),
	}

	if !allowedImageFormats[format] {
		return Outcome{
			Issues: []string{fmt.Sprintf("image format %q is not permitted", format)},
			Score:  30,
			Threat: datatypes.ThreatMedium,
			Meta:   side,
		}
	}

	maxW, maxH := meta.Limits.MaxImageWidth, meta.Limits.MaxImageHeight
	if (maxW > 0 && cfg.Width > maxW) || (maxH > 0 && cfg.Height > maxH) {
		return Outcome{
			Issues: []string{fmt.Sprintf("image dimensions %dx%d exceed limit %dx%d", cfg.Width, cfg.Height, maxW, maxH)},
			Score:  50,
			Threat: datatypes.ThreatLow,
			Meta:   side,
		}
	}

	out := clean()
	out.Meta = side
	return out
}

// colorModeName maps a color model to a short display name.
func colorModeName(m color.Model) string {
	switch m {
	case color.RGBAModel:
		return "RGBA"
	case color.NRGBAModel:
		return "NRGBA"
	case color.GrayModel:
		return "Gray"
	case color.Gray16Model:
		return "Gray16"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	default:
		if _, ok := m.(color.Palette); ok {
			return "Paletted"
		}
		return "Unknown"
	}
}
