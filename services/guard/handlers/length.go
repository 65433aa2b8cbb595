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
	"unicode/utf8"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// CheckLength compares content length against the kind-specific ceiling.
//
// # Description
//
// Textual kinds are measured in characters (runes), binary kinds in
// bytes. This is the cheapest structural check in the pipeline and is
// registered at the lowest priority so oversized payloads never reach
// the content-rewriting rules.
//
// A violation yields score 0, threat Low, and a single issue.
func CheckLength(content []byte, meta Metadata) Outcome {
	limits := meta.Limits

	switch meta.Kind {
	case datatypes.KindText, datatypes.KindHTML, datatypes.KindJSON,
		datatypes.KindEmail, datatypes.KindAPIResponse, datatypes.KindUserInput:
		if n := utf8.RuneCount(content); limits.MaxTextLen > 0 && n > limits.MaxTextLen {
			return lengthViolation(fmt.Sprintf("content length %d exceeds limit %d characters", n, limits.MaxTextLen))
		}

	case datatypes.KindURL:
		if n := utf8.RuneCount(content); limits.MaxURLLen > 0 && n > limits.MaxURLLen {
			return lengthViolation(fmt.Sprintf("URL length %d exceeds limit %d characters", n, limits.MaxURLLen))
		}

	case datatypes.KindImage:
		if limits.MaxImageBytes > 0 && int64(len(content)) > limits.MaxImageBytes {
			return lengthViolation(fmt.Sprintf("image size %d exceeds limit %d bytes", len(content), limits.MaxImageBytes))
		}

	case datatypes.KindVideo:
		if limits.MaxVideoBytes > 0 && int64(len(content)) > limits.MaxVideoBytes {
			return lengthViolation(fmt.Sprintf("video size %d exceeds limit %d bytes", len(content), limits.MaxVideoBytes))
		}

	case datatypes.KindAudio:
		if limits.MaxAudioBytes > 0 && int64(len(content)) > limits.MaxAudioBytes {
			return lengthViolation(fmt.Sprintf("audio size %d exceeds limit %d bytes", len(content), limits.MaxAudioBytes))
		}

	case datatypes.KindFile:
		if limits.MaxFileBytes > 0 && int64(len(content)) > limits.MaxFileBytes {
			return lengthViolation(fmt.Sprintf("file size %d exceeds limit %d bytes", len(content), limits.MaxFileBytes))
		}
	}

	return clean()
}

func lengthViolation(issue string) Outcome {
	return Outcome{
		Issues: []string{issue},
		Score:  0,
		Threat: datatypes.ThreatLow,
	}
}
