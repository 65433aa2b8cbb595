// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine orchestrates the content validation pipeline.
//
// # Description
//
// The Engine owns the rule registry, the handler dispatch table, the
// result cache, and the history ledger. There are no package-level
// singletons: construct one Engine per deployment (or per test) with
// New and pass it where it is needed.
//
// A validation run executes the applicable rules in priority order,
// aggregating score (min), threat (max), and issues, threading any
// sanitized content into subsequent rules, and short-circuiting when a
// BLOCK-action rule triggers.
//
// # Thread Safety
//
// Safe for concurrent use; independent Validate calls may run in
// parallel. Within one call, rule execution is strictly sequential
// because later rules may depend on earlier sanitized output.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianGuard/pkg/logging"
	"github.com/AleutianAI/AleutianGuard/services/guard/cache"
	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
	"github.com/AleutianAI/AleutianGuard/services/guard/handlers"
	"github.com/AleutianAI/AleutianGuard/services/guard/history"
	"github.com/AleutianAI/AleutianGuard/services/guard/identity"
	"github.com/AleutianAI/AleutianGuard/services/guard/rules"
)

// runState tracks the pipeline state machine: a run is Running until it
// either Blocks, exceeds its budget (Aborted), or Completes.
type runState int

const (
	stateRunning runState = iota
	stateBlocked
	stateAborted
	stateCompleted
)

// Options configures an Engine.
type Options struct {
	// Limits are the per-kind size ceilings. Default: DefaultLimits.
	Limits handlers.Limits

	// Budget is the wall-clock budget for one validate call. A run that
	// exceeds it is aborted at the next rule boundary and reported as
	// INVALID. Default: 5 seconds.
	Budget time.Duration

	// Logger receives one structured audit event per completed call.
	// Default: logging.Default().
	Logger *logging.Logger

	// HistorySize bounds the ledger. Default: history.DefaultMaxEntries.
	HistorySize int

	// CacheOptions configure the result cache.
	CacheOptions []cache.Option
}

// Option is a functional option for configuring an Engine.
type Option func(*Options)

// WithLimits overrides the size ceilings.
func WithLimits(l handlers.Limits) Option {
	return func(o *Options) { o.Limits = l }
}

// WithBudget sets the wall-clock budget per validate call.
func WithBudget(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Budget = d
		}
	}
}

// WithLogger sets the audit logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithHistorySize bounds the history ledger.
func WithHistorySize(n int) Option {
	return func(o *Options) { o.HistorySize = n }
}

// WithCacheOptions forwards options to the result cache.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *Options) { o.CacheOptions = append(o.CacheOptions, opts...) }
}

// Engine executes the validation pipeline.
type Engine struct {
	registry *rules.Registry
	dispatch map[string]handlers.Func
	cache    *cache.ResultCache
	ledger   *history.Ledger
	options  Options
	logger   *logging.Logger
}

// New creates an Engine with the default rule set.
//
// # Outputs
//
//   - *Engine: Ready to use.
//   - error: Non-nil only if the default rule set fails to register,
//     which indicates a programming error.
func New(opts ...Option) (*Engine, error) {
	options := Options{
		Limits:      handlers.DefaultLimits(),
		Budget:      5 * time.Second,
		HistorySize: history.DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = logging.Default()
	}

	registry := rules.NewRegistry()
	for _, rule := range DefaultRules() {
		if err := registry.Register(rule); err != nil {
			return nil, fmt.Errorf("register default rule: %w", err)
		}
	}

	initMetrics()
	return &Engine{
		registry: registry,
		dispatch: handlers.Dispatch(),
		cache:    cache.New(options.CacheOptions...),
		ledger:   history.NewLedger(options.HistorySize),
		options:  options,
		logger:   options.Logger.With("component", "guard.engine"),
	}, nil
}

// Registry exposes the rule registry for configuration overlays
// (rules.ApplyRuleSet) and enablement toggles.
func (e *Engine) Registry() *rules.Registry { return e.registry }

// CacheStats returns the result cache counters.
func (e *Engine) CacheStats() cache.Stats { return e.cache.Stats() }

// SetHandler replaces the handler for one rule ID. Intended for tests
// and for deployments that plug in custom detectors.
func (e *Engine) SetHandler(ruleID string, fn handlers.Func) {
	e.dispatch[ruleID] = fn
}

// Report aggregates the history ledger over the window (zero = all).
func (e *Engine) Report(window time.Duration) history.Report {
	return e.ledger.Report(window, e.registry.Snapshot())
}

// Validate runs the pipeline against one content item.
//
// # Description
//
// Well-formed calls always return an Outcome, never an error: handler
// failures, malformed payloads, and budget overruns are all folded into
// the outcome per the pipeline's error policy. The error return is
// reserved for caller-contract violations and is currently always nil
// on the non-cached path.
//
// Cancellation is honored at rule boundaries only; a handler that has
// begun is never interrupted mid-flight, so Sanitized is never torn.
//
// # Inputs
//
//   - ctx: Cancellation and tracing context.
//   - content: Raw bytes (hash of these bytes is the cache identity).
//   - kind: Declared content kind.
//   - strictness: Requested inspection level.
//   - extra: Optional caller metadata, passed through to handlers.
func (e *Engine) Validate(ctx context.Context, content []byte, kind datatypes.ContentKind,
	strictness datatypes.StrictnessLevel, extra map[string]any) (*datatypes.Outcome, error) {

	start := time.Now()
	id := identity.Fingerprint(content)

	ctx, span := tracer.Start(ctx, "guard.validate", trace.WithAttributes(
		attribute.String("content_id", id.Short()),
		attribute.String("content_kind", string(kind)),
		attribute.String("strictness", strictness.String()),
	))
	defer span.End()

	outcome, computed, err := e.cache.GetOrCompute(id, strictness, func() (*datatypes.Outcome, bool, error) {
		result, state := e.runPipeline(ctx, content, id, kind, strictness, extra)
		// An aborted run reflects this caller's cancellation or budget,
		// not the content; caching it would serve INVALID to healthy
		// callers for the full TTL.
		return result, state != stateAborted, nil
	})
	if err != nil {
		return nil, err
	}

	if !computed {
		e.emitAudit(outcome, true)
		recordValidate(ctx, string(outcome.Verdict), true, time.Since(start).Seconds())
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return outcome, nil
	}

	e.ledger.Append(outcome)
	e.emitAudit(outcome, false)
	recordValidate(ctx, string(outcome.Verdict), false, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Bool("cache_hit", false),
		attribute.String("verdict", string(outcome.Verdict)),
		attribute.Float64("score", outcome.Score),
	)
	return outcome, nil
}

// runPipeline executes the rules for one cache-miss validation. The
// returned state lets the caller distinguish aborted runs, which must
// not be cached, from completed and blocked ones.
func (e *Engine) runPipeline(ctx context.Context, content []byte, id identity.ID,
	kind datatypes.ContentKind, strictness datatypes.StrictnessLevel, extra map[string]any) (*datatypes.Outcome, runState) {

	start := time.Now()

	result := &datatypes.Outcome{
		ContentID:  id.String(),
		Kind:       kind,
		Strictness: strictness,
		Score:      100,
		Threat:     datatypes.ThreatNone,
		Issues:     []string{},
	}

	meta := handlers.Metadata{
		Kind:       kind,
		Strictness: strictness,
		Limits:     e.options.Limits,
		Extra:      extra,
	}
	if extra != nil {
		if name, ok := extra["filename"].(string); ok {
			meta.Filename = name
		}
		if endpoint, ok := extra["endpoint"].(string); ok {
			meta.Endpoint = endpoint
		}
	}

	state := stateRunning
	current := content

	for _, rule := range e.registry.RulesFor(kind, strictness) {
		// Rule boundaries are the only cancellation checkpoints: a
		// handler is never interrupted once it has begun.
		if err := ctx.Err(); err != nil {
			result.Issues = append(result.Issues, fmt.Sprintf("validation aborted: %v", err))
			state = stateAborted
			break
		}
		if elapsed := time.Since(start); elapsed > e.options.Budget {
			result.Issues = append(result.Issues,
				fmt.Sprintf("validation budget %s exceeded after %s", e.options.Budget, elapsed.Round(time.Millisecond)))
			state = stateAborted
			break
		}

		result.RulesApplied = append(result.RulesApplied, rule.ID)
		outcome, failed := e.invoke(rule, current, meta)

		result.Issues = append(result.Issues, outcome.Issues...)
		if outcome.Score < result.Score {
			result.Score = outcome.Score
		}
		result.Threat = datatypes.MaxThreat(result.Threat, outcome.Threat)
		for key, value := range outcome.Meta {
			if result.Metadata == nil {
				result.Metadata = make(map[string]any)
			}
			result.Metadata[key] = value
		}

		// Sanitization commits before the block check so Sanitized is
		// never torn, even when the same rule also blocks.
		if outcome.Sanitized != nil {
			result.Sanitized = outcome.Sanitized
			current = outcome.Sanitized
		}

		// A failed rule contributes its synthetic penalty but never
		// blocks: blocking is reserved for rules that actually ran.
		if !failed && rule.Action == datatypes.ActionBlock && len(outcome.Issues) > 0 {
			state = stateBlocked
			break
		}
	}
	if state == stateRunning {
		state = stateCompleted
	}

	switch state {
	case stateBlocked:
		result.Verdict = datatypes.VerdictBlocked
	case stateAborted:
		result.Verdict = datatypes.VerdictInvalid
	default:
		switch {
		case result.Threat >= datatypes.ThreatHigh:
			result.Verdict = datatypes.VerdictInvalid
		case result.Threat == datatypes.ThreatMedium || result.Score < 70:
			result.Verdict = datatypes.VerdictWarning
		default:
			result.Verdict = datatypes.VerdictValid
		}
	}

	result.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000.0
	result.CreatedAt = time.Now()
	return result, state
}

// invoke dispatches one rule to its handler, converting panics and
// missing handlers into synthetic medium-severity outcomes so a single
// failing rule cannot silently pass content through. The second return
// reports whether the rule failed rather than ran.
func (e *Engine) invoke(rule rules.Rule, content []byte, meta handlers.Metadata) (out handlers.Outcome, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			out = handlers.Outcome{
				Issues: []string{fmt.Sprintf("rule %s failed: %v", rule.ID, r)},
				Score:  0,
				Threat: datatypes.ThreatMedium,
			}
			failed = true
		}
	}()

	fn, ok := e.dispatch[rule.ID]
	if !ok {
		return handlers.Outcome{
			Issues: []string{fmt.Sprintf("rule %s failed: no handler registered", rule.ID)},
			Score:  0,
			Threat: datatypes.ThreatMedium,
		}, true
	}
	return fn(content, meta), false
}

// emitAudit emits the structured audit event for one completed call.
// Raw content is never logged; only the fingerprint and aggregates.
func (e *Engine) emitAudit(outcome *datatypes.Outcome, cached bool) {
	e.logger.Info("validation completed",
		"event_id", uuid.NewString(),
		"content_id", identity.ID(outcome.ContentID).Short(),
		"content_kind", string(outcome.Kind),
		"strictness", outcome.Strictness.String(),
		"verdict", string(outcome.Verdict),
		"threat", outcome.Threat.String(),
		"score", outcome.Score,
		"issue_count", len(outcome.Issues),
		"elapsed_ms", outcome.ElapsedMS,
		"cache_hit", cached,
	)
}
