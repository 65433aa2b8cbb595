// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// ValidateText validates plain text at Standard strictness, or Strict
// when strict is true.
func (e *Engine) ValidateText(ctx context.Context, text string, strict bool) (*datatypes.Outcome, error) {
	strictness := datatypes.StrictnessStandard
	if strict {
		strictness = datatypes.StrictnessStrict
	}
	return e.Validate(ctx, []byte(text), datatypes.KindText, strictness, nil)
}

// ValidateHTML validates HTML markup at Standard strictness.
func (e *Engine) ValidateHTML(ctx context.Context, html string) (*datatypes.Outcome, error) {
	return e.Validate(ctx, []byte(html), datatypes.KindHTML, datatypes.StrictnessStandard, nil)
}

// ValidateUpload validates an uploaded file.
//
// Uploads are the highest-risk inbound surface, so they are always
// inspected at Strict strictness, which enables the binary signature
// scan in the default rule set.
func (e *Engine) ValidateUpload(ctx context.Context, data []byte, filename string) (*datatypes.Outcome, error) {
	return e.Validate(ctx, data, datatypes.KindFile, datatypes.StrictnessStrict,
		map[string]any{"filename": filename})
}

// ValidateAPIResponse validates a decoded API response body.
//
// The value is re-serialized to JSON for inspection; a value that
// cannot be serialized is a caller-contract violation and returns an
// error rather than an Outcome.
func (e *Engine) ValidateAPIResponse(ctx context.Context, body any, endpoint string) (*datatypes.Outcome, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("serialize API response for validation: %w", err)
	}
	return e.Validate(ctx, data, datatypes.KindAPIResponse, datatypes.StrictnessStandard,
		map[string]any{"endpoint": endpoint})
}
