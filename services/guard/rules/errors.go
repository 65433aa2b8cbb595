// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import "errors"

// Sentinel errors for the rules package.
//
// These are configuration-time errors: they surface programming or
// deployment mistakes eagerly at registration/load time and are never
// produced during validation itself.
var (
	// ErrInvalidRule indicates a rule definition that cannot be registered
	// (empty ID, no applicable kinds, or an unknown action).
	ErrInvalidRule = errors.New("invalid rule definition")

	// ErrRuleNotFound indicates a lookup for an unregistered rule ID.
	ErrRuleNotFound = errors.New("rule not found")
)
