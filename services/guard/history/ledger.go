// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history keeps the bounded append log of past verdicts and
// produces aggregate compliance reports over it.
//
// The ledger is used only for reporting, never for correctness: nothing
// in the validation pipeline reads it back.
package history

import (
	"sync"
	"time"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// DefaultMaxEntries is the default ledger bound.
const DefaultMaxEntries = 10_000

// Ledger is a bounded in-memory append log of validation outcomes.
//
// # Description
//
// When an append would exceed the configured maximum, the oldest half
// of the entries is dropped in one batch. Dropping in bulk keeps the
// append path O(1) amortized instead of shifting on every insert.
//
// # Thread Safety
//
// Safe for concurrent use.
type Ledger struct {
	mu         sync.RWMutex
	entries    []*datatypes.Outcome
	maxEntries int
}

// NewLedger creates a ledger bounded at maxEntries (DefaultMaxEntries
// when maxEntries <= 0).
func NewLedger(maxEntries int) *Ledger {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	initMetrics()
	return &Ledger{
		entries:    make([]*datatypes.Outcome, 0, 256),
		maxEntries: maxEntries,
	}
}

// Append records a completed outcome.
func (l *Ledger) Append(outcome *datatypes.Outcome) {
	if outcome == nil {
		return
	}
	recordOutcome(outcome)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.maxEntries {
		keep := len(l.entries) / 2
		copy(l.entries, l.entries[len(l.entries)-keep:])
		l.entries = l.entries[:keep]
	}
	l.entries = append(l.entries, outcome)
}

// Len returns the current entry count.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// snapshot returns the entries newer than the cutoff. A zero window
// means all entries.
func (l *Ledger) snapshot(window time.Duration) []*datatypes.Outcome {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if window <= 0 {
		out := make([]*datatypes.Outcome, len(l.entries))
		copy(out, l.entries)
		return out
	}

	cutoff := time.Now().Add(-window)
	out := make([]*datatypes.Outcome, 0, len(l.entries))
	for _, entry := range l.entries {
		if entry.CreatedAt.After(cutoff) {
			out = append(out, entry)
		}
	}
	return out
}
