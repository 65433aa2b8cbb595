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

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// executableSignature is one known executable/container magic number.
type executableSignature struct {
	name   string
	offset int
	magic  []byte
}

// executableSignatures covers the common executable formats. Ordered by
// specificity, most specific first.
var executableSignatures = []executableSignature{
	{name: "ELF executable", offset: 0, magic: []byte{0x7F, 'E', 'L', 'F'}},
	{name: "Mach-O executable (64-bit)", offset: 0, magic: []byte{0xCF, 0xFA, 0xED, 0xFE}},
	{name: "Mach-O executable (32-bit)", offset: 0, magic: []byte{0xCE, 0xFA, 0xED, 0xFE}},
	{name: "Mach-O executable (big-endian)", offset: 0, magic: []byte{0xFE, 0xED, 0xFA, 0xCE}},
	{name: "Mach-O universal binary", offset: 0, magic: []byte{0xCA, 0xFE, 0xBA, 0xBE}},
	{name: "PE executable", offset: 0, magic: []byte{0x4D, 0x5A}}, // MZ
}

// ScanBinarySignature checks leading bytes against executable magic
// numbers.
//
// # Description
//
// Any match is score 0 and threat Critical: executable payloads have no
// legitimate place in user content. The default registry gates this
// rule at Strict strictness, so routine Standard-level calls skip it.
func ScanBinarySignature(content []byte, meta Metadata) Outcome {
	for _, sig := range executableSignatures {
		end := sig.offset + len(sig.magic)
		if len(content) >= end && bytes.Equal(content[sig.offset:end], sig.magic) {
			return Outcome{
				Issues: []string{fmt.Sprintf("binary signature matched: %s", sig.name)},
				Score:  0,
				Threat: datatypes.ThreatCritical,
			}
		}
	}
	return clean()
}
