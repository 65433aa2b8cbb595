// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package identity computes deterministic content fingerprints.
//
// Fingerprints are used as cache keys and as audit references, so raw
// content never needs to be stored or logged. Strings and byte slices
// with the same UTF-8 encoding produce the same fingerprint.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortLen is the number of hex characters in the display form.
const ShortLen = 16

// ID is a content fingerprint.
//
// The zero value is not a valid ID; use Fingerprint to construct one.
type ID string

// Fingerprint computes the fingerprint of raw content bytes.
//
// # Description
//
// SHA-256 over the raw bytes, hex encoded. Deterministic, collision
// resistant, and has no failure mode. Callers holding a string should
// pass []byte(s); the hash is always over the UTF-8 encoding.
func Fingerprint(content []byte) ID {
	sum := sha256.Sum256(content)
	return ID(hex.EncodeToString(sum[:]))
}

// String returns the full hex fingerprint.
func (id ID) String() string { return string(id) }

// Short returns the truncated display form used in logs and audit
// events.
func (id ID) Short() string {
	if len(id) <= ShortLen {
		return string(id)
	}
	return string(id[:ShortLen])
}
