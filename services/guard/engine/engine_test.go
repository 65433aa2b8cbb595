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
	"bytes"
	"context"
	"image"
	"image/png"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGuard/pkg/logging"
	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
	"github.com/AleutianAI/AleutianGuard/services/guard/handlers"
	"github.com/AleutianAI/AleutianGuard/services/guard/rules"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append(opts, WithLogger(logging.New(logging.Config{Quiet: true})))
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestValidateCleanText(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.ValidateText(context.Background(), "Hello, world!", false)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictValid, out.Verdict)
	assert.Equal(t, 100.0, out.Score)
	assert.Equal(t, datatypes.ThreatNone, out.Threat)
	assert.Empty(t, out.Issues)
	assert.Len(t, out.ContentID, 64)
	assert.Equal(t, []string{
		handlers.RuleLengthCheck, handlers.RuleInjectionScan, handlers.RuleLexicalFilter,
	}, out.RulesApplied)
}

// The sanitizer runs before the injection scan, so script markup in HTML
// is removed rather than blocked.
func TestValidateHTMLSanitizesBeforeScan(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.ValidateHTML(context.Background(), "<p>hi<script>alert(1)</script></p>")
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictValid, out.Verdict)
	assert.Equal(t, 80.0, out.Score)
	assert.Equal(t, datatypes.ThreatLow, out.Threat)
	assert.Equal(t, "<p>hi</p>", string(out.Sanitized))
	assert.Equal(t, []string{
		handlers.RuleLengthCheck, handlers.RuleHTMLSanitize, handlers.RuleInjectionScan,
	}, out.RulesApplied)
}

// Plain text has no sanitizer, so the same payload blocks.
func TestValidateTextXSSBlocks(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.ValidateText(context.Background(), "<script>alert(1)</script>", false)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictBlocked, out.Verdict)
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, datatypes.ThreatHigh, out.Threat)
	// The block short-circuits: the lexical filter never runs.
	assert.Equal(t, []string{
		handlers.RuleLengthCheck, handlers.RuleInjectionScan,
	}, out.RulesApplied)
}

func TestValidateOversizedTextBlocks(t *testing.T) {
	limits := handlers.DefaultLimits()
	limits.MaxTextLen = 5
	e := newTestEngine(t, WithLimits(limits))

	out, err := e.ValidateText(context.Background(), "well over five characters", false)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictBlocked, out.Verdict)
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, []string{handlers.RuleLengthCheck}, out.RulesApplied)
}

// Uploads validate at Strict, which enables the binary signature scan.
func TestValidateUploadExecutableBlocks(t *testing.T) {
	e := newTestEngine(t)

	payload := append([]byte("MZ"), make([]byte, 62)...)
	out, err := e.ValidateUpload(context.Background(), payload, "update.bin")
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictBlocked, out.Verdict)
	assert.Equal(t, datatypes.ThreatCritical, out.Threat)
	assert.Equal(t, 0.0, out.Score)
	assert.Contains(t, out.RulesApplied, handlers.RuleBinarySignature)
}

func TestValidateTextProfanityMasked(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.ValidateText(context.Background(), "what the hell", false)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictValid, out.Verdict)
	assert.Equal(t, 80.0, out.Score)
	assert.Equal(t, datatypes.ThreatLow, out.Threat)
	assert.Equal(t, "what the ****", string(out.Sanitized))
}

func TestValidateAPIResponse(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.ValidateAPIResponse(context.Background(),
		map[string]any{"q": "1' OR '1'='1"}, "/api/v1/search")
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictWarning, out.Verdict)
	assert.Equal(t, datatypes.ThreatMedium, out.Threat)
	assert.Equal(t, datatypes.KindAPIResponse, out.Kind)
}

func TestValidateAPIResponseUnserializable(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ValidateAPIResponse(context.Background(), make(chan int), "/api/v1/x")
	assert.Error(t, err)
}

func TestValidateCachesByContentAndStrictness(t *testing.T) {
	e := newTestEngine(t)

	var calls atomic.Int64
	e.SetHandler(handlers.RuleInjectionScan, func(content []byte, meta handlers.Metadata) handlers.Outcome {
		calls.Add(1)
		return handlers.ScanInjection(content, meta)
	})

	ctx := context.Background()
	first, err := e.ValidateText(ctx, "cache me", false)
	require.NoError(t, err)
	second, err := e.ValidateText(ctx, "cache me", false)
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load(), "second call must be served from cache")
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), e.CacheStats().Hits)

	// Same content at a different strictness is a fresh run.
	_, err = e.ValidateText(ctx, "cache me", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())

	// Cache hits are not re-appended to the history ledger.
	assert.Equal(t, 2, e.Report(0).Summary.Total)
}

func TestValidateBudgetAbort(t *testing.T) {
	e := newTestEngine(t, WithBudget(5*time.Millisecond))
	e.SetHandler(handlers.RuleLengthCheck, func(content []byte, meta handlers.Metadata) handlers.Outcome {
		time.Sleep(25 * time.Millisecond)
		return handlers.CheckLength(content, meta)
	})

	out, err := e.ValidateText(context.Background(), "slow content", false)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictInvalid, out.Verdict)
	assert.Equal(t, []string{handlers.RuleLengthCheck}, out.RulesApplied)
	require.NotEmpty(t, out.Issues)
	assert.Contains(t, out.Issues[len(out.Issues)-1], "budget")
}

func TestValidateCancelledContext(t *testing.T) {
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := e.Validate(ctx, []byte("anything"), datatypes.KindText, datatypes.StrictnessStandard, nil)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictInvalid, out.Verdict)
	assert.Empty(t, out.RulesApplied)
	require.NotEmpty(t, out.Issues)
	assert.Contains(t, out.Issues[0], "aborted")
}

// An aborted run reflects the caller's context, not the content; it
// must never be cached, or healthy callers would be served INVALID for
// the full TTL.
func TestValidateAbortedRunNotCached(t *testing.T) {
	e := newTestEngine(t)
	payload := []byte("perfectly ordinary text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	aborted, err := e.Validate(ctx, payload, datatypes.KindText, datatypes.StrictnessStandard, nil)
	require.NoError(t, err)
	require.Equal(t, datatypes.VerdictInvalid, aborted.Verdict)

	out, err := e.Validate(context.Background(), payload, datatypes.KindText, datatypes.StrictnessStandard, nil)
	require.NoError(t, err)
	assert.Equal(t, datatypes.VerdictValid, out.Verdict)
	assert.Equal(t, 100.0, out.Score)
	assert.Empty(t, out.Issues)

	// The healthy outcome is what gets cached.
	again, err := e.Validate(context.Background(), payload, datatypes.KindText, datatypes.StrictnessStandard, nil)
	require.NoError(t, err)
	assert.Equal(t, datatypes.VerdictValid, again.Verdict)
	assert.Equal(t, int64(1), e.CacheStats().Hits)
}

// A panicking handler contributes a synthetic penalty but never blocks
// or aborts the run.
func TestValidatePanickingHandlerDegrades(t *testing.T) {
	e := newTestEngine(t)
	e.SetHandler(handlers.RuleInjectionScan, func(content []byte, meta handlers.Metadata) handlers.Outcome {
		panic("detector crashed")
	})

	out, err := e.ValidateText(context.Background(), "ordinary text", false)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictWarning, out.Verdict)
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, datatypes.ThreatMedium, out.Threat)
	require.NotEmpty(t, out.Issues)
	assert.Contains(t, out.Issues[0], "rule injection_scan failed")
	// The pipeline continued past the failed Block-action rule.
	assert.Contains(t, out.RulesApplied, handlers.RuleLexicalFilter)
}

func TestValidateMissingHandlerDegrades(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Registry().Register(rules.Rule{
		ID:       "custom_probe",
		Name:     "Custom Probe",
		Kinds:    []datatypes.ContentKind{datatypes.KindText},
		Enabled:  true,
		Priority: 5,
		Action:   datatypes.ActionBlock,
	}))

	out, err := e.ValidateText(context.Background(), "ordinary text", false)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictWarning, out.Verdict)
	require.NotEmpty(t, out.Issues)
	assert.Contains(t, out.Issues[0], "no handler registered")
	// Later rules still ran.
	assert.Contains(t, out.RulesApplied, handlers.RuleInjectionScan)
}

func TestValidateImageMetadataSurfaces(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Validate(context.Background(), encodePNG(t, 4, 4),
		datatypes.KindImage, datatypes.StrictnessStandard, nil)
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictValid, out.Verdict)
	require.NotNil(t, out.Metadata)
	assert.Equal(t, "png", out.Metadata["image_format"])
	assert.Equal(t, 4, out.Metadata["image_width"])
}

func TestReportReflectsHistory(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ValidateText(ctx, "clean one", false)
	require.NoError(t, err)
	_, err = e.ValidateText(ctx, "<script>x=1;eval(x)</script>", false)
	require.NoError(t, err)

	report := e.Report(0)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Valid)
	assert.Equal(t, 1, report.Summary.Blocked)
	assert.InDelta(t, 0.5, report.Summary.SuccessRate, 1e-9)
	assert.Equal(t, len(DefaultRules()), report.Rules.Total)
	assert.Contains(t, report.Rules.PerRule, handlers.RuleInjectionScan)
}

func TestRuleSetOverlayDisablesRule(t *testing.T) {
	e := newTestEngine(t)

	set, err := rules.ParseRuleSet([]byte(`
rules:
  - id: ` + handlers.RuleLexicalFilter + `
    name: Lexical Content Filter
    kinds: [text, user_input, email]
    min_strictness: standard
    enabled: false
    priority: 60
    action: sanitize
`))
	require.NoError(t, err)
	require.NoError(t, rules.ApplyRuleSet(e.Registry(), set))

	out, err := e.ValidateText(context.Background(), "what the hell", false)
	require.NoError(t, err)

	assert.Equal(t, 100.0, out.Score)
	assert.Nil(t, out.Sanitized)
	assert.NotContains(t, out.RulesApplied, handlers.RuleLexicalFilter)
}
