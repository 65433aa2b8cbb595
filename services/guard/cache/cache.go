// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides the bounded TTL cache for validation outcomes.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
	"github.com/AleutianAI/AleutianGuard/services/guard/identity"
)

// ResultCache caches validation outcomes keyed by content identity and
// strictness level.
//
// # Description
//
// Outcomes for the same (content, strictness) pair are deterministic,
// so last-write-wins on key collision is safe. Entries expire after the
// configured TTL; expiry is checked lazily on Get. When the entry count
// would exceed the capacity, the oldest ~20% by insertion time are
// evicted in one batch before the new entry is inserted.
//
// # Thread Safety
//
// Safe for concurrent use. Reads take an RWMutex read lock only; the
// critical sections are bounded (no handler work happens under the
// lock). A singleflight group deduplicates concurrent computations for
// the same key.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*resultEntry
	order   *list.List // insertion order, oldest at front
	options Options
	flight  singleflight.Group

	hits      int64
	misses    int64
	evictions int64
}

// resultEntry is one cached outcome.
type resultEntry struct {
	key       string
	outcome   *datatypes.Outcome
	expiresAt time.Time
	element   *list.Element
}

// Options configures ResultCache.
type Options struct {
	// MaxEntries is the capacity bound. Default: 1000.
	MaxEntries int

	// TTL is the entry lifetime. Default: 5 minutes.
	TTL time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxEntries: 1000,
		TTL:        5 * time.Minute,
	}
}

// Option is a functional option for configuring ResultCache.
type Option func(*Options)

// WithMaxEntries sets the capacity bound.
func WithMaxEntries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxEntries = n
		}
	}
}

// WithTTL sets the entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.TTL = d
		}
	}
}

// New creates a ResultCache.
func New(opts ...Option) *ResultCache {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	initMetrics()
	return &ResultCache{
		entries: make(map[string]*resultEntry),
		order:   list.New(),
		options: options,
	}
}

// Key builds the composite cache key.
func Key(id identity.ID, strictness datatypes.StrictnessLevel) string {
	return fmt.Sprintf("%s:%d", id, strictness)
}

// Get returns the cached outcome for (id, strictness), if unexpired.
func (c *ResultCache) Get(id identity.ID, strictness datatypes.StrictnessLevel) (*datatypes.Outcome, bool) {
	key := Key(id, strictness)

	// Entry fields are read under the lock: Put refreshes outcome and
	// expiresAt in place on an existing entry.
	c.mu.RLock()
	entry, ok := c.entries[key]
	var outcome *datatypes.Outcome
	var expired bool
	if ok {
		outcome = entry.outcome
		expired = time.Now().After(entry.expiresAt)
	}
	c.mu.RUnlock()

	if !ok {
		c.recordMiss()
		return nil, false
	}
	if expired {
		// Lazy expiry: drop the stale entry on the read path, unless a
		// concurrent Put refreshed it in the meantime.
		c.mu.Lock()
		if current, still := c.entries[key]; still && current == entry && time.Now().After(current.expiresAt) {
			c.removeLocked(current)
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return outcome, true
}

// peek is Get without counter side effects or lazy expiry, used for the
// re-check inside a singleflight computation so one lookup chain counts
// exactly one hit or miss.
func (c *ResultCache) peek(key string) (*datatypes.Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.outcome, true
}

// Put inserts or replaces the outcome for (id, strictness).
func (c *ResultCache) Put(id identity.ID, strictness datatypes.StrictnessLevel, outcome *datatypes.Outcome) {
	key := Key(id, strictness)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		existing.outcome = outcome
		existing.expiresAt = now.Add(c.options.TTL)
		return
	}

	if len(c.entries) >= c.options.MaxEntries {
		c.evictOldestLocked()
	}

	entry := &resultEntry{
		key:       key,
		outcome:   outcome,
		expiresAt: now.Add(c.options.TTL),
	}
	entry.element = c.order.PushBack(entry)
	c.entries[key] = entry
}

// flightResult carries one singleflight computation result.
type flightResult struct {
	outcome  *datatypes.Outcome
	computed bool
}

// GetOrCompute returns the cached outcome or computes it.
//
// # Description
//
// Concurrent callers for the same key share one computation: the first
// caller runs compute, the rest wait for its result. This keeps a burst
// of identical submissions from invoking the rule pipeline repeatedly.
//
// The compute callback reports whether its outcome may be stored.
// Transient results (an aborted run reflecting the caller's context or
// budget rather than the content) return store=false: they are handed
// back to the caller but never cached, so later callers get a fresh run.
//
// # Outputs
//
//   - *datatypes.Outcome: The cached or computed outcome.
//   - bool: True when compute ran for this result (shared across one
//     flight); false when it was served from the cache.
//   - error: compute's error, if any. Errors are never cached.
func (c *ResultCache) GetOrCompute(id identity.ID, strictness datatypes.StrictnessLevel,
	compute func() (*datatypes.Outcome, bool, error)) (*datatypes.Outcome, bool, error) {

	key := Key(id, strictness)
	if outcome, ok := c.Get(id, strictness); ok {
		return outcome, false, nil
	}

	result, err, _ := c.flight.Do(key, func() (any, error) {
		// Re-check: another flight may have populated the entry between
		// the miss above and acquiring the flight slot. peek keeps the
		// counters at one miss per lookup chain.
		if outcome, ok := c.peek(key); ok {
			return flightResult{outcome: outcome}, nil
		}
		outcome, store, err := compute()
		if err != nil {
			return nil, err
		}
		if store {
			c.Put(id, strictness, outcome)
		}
		return flightResult{outcome: outcome, computed: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	flight := result.(flightResult)
	return flight.outcome, flight.computed, nil
}

// evictOldestLocked removes the oldest ~20% of entries by insertion
// time. Caller must hold the write lock.
func (c *ResultCache) evictOldestLocked() {
	batch := c.options.MaxEntries / 5
	if batch < 1 {
		batch = 1
	}
	for i := 0; i < batch; i++ {
		front := c.order.Front()
		if front == nil {
			return
		}
		c.removeLocked(front.Value.(*resultEntry))
	}
}

// removeLocked removes one entry. Caller must hold the write lock.
func (c *ResultCache) removeLocked(entry *resultEntry) {
	delete(c.entries, entry.key)
	c.order.Remove(entry.element)
	c.evictions++
	recordEviction()
}

// Len returns the current entry count.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Stats returns a snapshot of the cache counters.
func (c *ResultCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *ResultCache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	recordHit()
}

func (c *ResultCache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	recordMiss()
}
