// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules defines validation rule descriptors and the registry
// that selects and orders them per validation call.
package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// Rule describes one validation rule.
//
// A Rule carries no algorithm; it names a handler by ID and configures
// when that handler runs and what its triggering means. The handler
// dispatch table lives in the engine package.
type Rule struct {
	// ID is the unique rule identifier (e.g. "injection_scan").
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable display name.
	Name string `yaml:"name" json:"name"`

	// Kinds is the set of content kinds this rule applies to.
	Kinds []datatypes.ContentKind `yaml:"kinds" json:"kinds"`

	// MinStrictness is the lowest strictness level at which the rule runs.
	MinStrictness datatypes.StrictnessLevel `yaml:"-" json:"min_strictness"`

	// Enabled indicates whether the rule participates in selection.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Priority orders execution; lower values run first. Ties are broken
	// by registration order.
	Priority int `yaml:"priority" json:"priority"`

	// Action is the disposition when the rule reports issues.
	Action datatypes.Action `yaml:"-" json:"action"`
}

// appliesTo reports whether the rule covers the given kind.
func (r Rule) appliesTo(kind datatypes.ContentKind) bool {
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// validate checks the rule definition eagerly at registration time.
func (r Rule) validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty rule ID", ErrInvalidRule)
	}
	if len(r.Kinds) == 0 {
		return fmt.Errorf("%w: rule %q has no applicable kinds", ErrInvalidRule, r.ID)
	}
	switch r.Action {
	case datatypes.ActionAllow, datatypes.ActionSanitize, datatypes.ActionBlock, datatypes.ActionFlag:
		return nil
	default:
		return fmt.Errorf("%w: rule %q has unknown action %q", ErrInvalidRule, r.ID, r.Action)
	}
}

// Registry holds rule definitions and answers selection queries.
//
// # Description
//
// Registering a rule whose ID is already present replaces the previous
// definition in place (last write wins). The replaced rule keeps its
// original registration slot, so priority ties continue to break by
// first-registration order. This replacement behavior is intentional
// and documented; it is how configuration overlays re-tune the default
// rule set.
//
// # Thread Safety
//
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
	index map[string]int // rule ID -> position in rules
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register adds or replaces a rule.
//
// # Outputs
//
//   - error: ErrInvalidRule if the definition is malformed. Duplicate IDs
//     are not an error; the new definition replaces the old one.
func (reg *Registry) Register(rule Rule) error {
	if err := rule.validate(); err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if pos, ok := reg.index[rule.ID]; ok {
		reg.rules[pos] = rule
		return nil
	}
	reg.index[rule.ID] = len(reg.rules)
	reg.rules = append(reg.rules, rule)
	return nil
}

// Get returns the rule with the given ID.
func (reg *Registry) Get(id string) (Rule, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	pos, ok := reg.index[id]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	return reg.rules[pos], nil
}

// RulesFor selects the rules applicable to one validation call.
//
// # Description
//
// Selection predicate: enabled, kind in Kinds, MinStrictness <= the
// requested strictness. The result is sorted ascending by Priority with
// ties broken by registration order (stable sort).
//
// # Outputs
//
//   - []Rule: A fresh slice; callers may not see later registrations.
func (reg *Registry) RulesFor(kind datatypes.ContentKind, strictness datatypes.StrictnessLevel) []Rule {
	reg.mu.RLock()
	selected := make([]Rule, 0, len(reg.rules))
	for _, rule := range reg.rules {
		if rule.Enabled && rule.appliesTo(kind) && rule.MinStrictness <= strictness {
			selected = append(selected, rule)
		}
	}
	reg.mu.RUnlock()

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Priority < selected[j].Priority
	})
	return selected
}

// Snapshot returns all registered rules in registration order.
func (reg *Registry) Snapshot() []Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Rule, len(reg.rules))
	copy(out, reg.rules)
	return out
}

// SetEnabled toggles a rule without replacing its definition.
func (reg *Registry) SetEnabled(id string, enabled bool) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	pos, ok := reg.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	reg.rules[pos].Enabled = enabled
	return nil
}

// Len returns the number of registered rules.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rules)
}
