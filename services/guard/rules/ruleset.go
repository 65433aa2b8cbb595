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

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// ruleSetFile is the YAML document shape for a rule-set overlay.
//
// Example:
//
//	rules:
//	  - id: injection_scan
//	    name: Injection Scan
//	    kinds: [text, html, json, url, user_input]
//	    min_strictness: basic
//	    enabled: true
//	    priority: 50
//	    action: block
type ruleSetFile struct {
	Rules []ruleYAML `yaml:"rules"`
}

// ruleYAML is one rule entry with string-typed enums for parsing.
type ruleYAML struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Kinds         []string `yaml:"kinds"`
	MinStrictness string   `yaml:"min_strictness"`
	Enabled       *bool    `yaml:"enabled"`
	Priority      int      `yaml:"priority"`
	Action        string   `yaml:"action"`
}

// LoadRuleSet reads rule definitions from a YAML file.
//
// # Description
//
// The returned rules are validated but not registered; callers apply
// them to a Registry (typically on top of the defaults) so deployments
// can disable, re-prioritize, or re-action rules from configuration.
//
// # Outputs
//
//   - []Rule: Parsed rules in file order.
//   - error: Non-nil on read, parse, or validation failure.
func LoadRuleSet(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set %s: %w", path, err)
	}
	return ParseRuleSet(data)
}

// ParseRuleSet parses rule definitions from YAML bytes.
func ParseRuleSet(data []byte) ([]Rule, error) {
	var file ruleSetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}

	out := make([]Rule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		rule, err := entry.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule set entry %d: %w", i, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

// ApplyRuleSet registers every rule into the registry.
//
// Existing rules with the same IDs are replaced (last write wins).
func ApplyRuleSet(reg *Registry, set []Rule) error {
	for _, rule := range set {
		if err := reg.Register(rule); err != nil {
			return err
		}
	}
	return nil
}

// toRule converts a YAML entry into a validated Rule.
func (y ruleYAML) toRule() (Rule, error) {
	kinds := make([]datatypes.ContentKind, 0, len(y.Kinds))
	for _, name := range y.Kinds {
		kind, err := datatypes.ParseKind(name)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		kinds = append(kinds, kind)
	}

	strictness := datatypes.StrictnessBasic
	if y.MinStrictness != "" {
		parsed, err := datatypes.ParseStrictness(y.MinStrictness)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		strictness = parsed
	}

	action, err := datatypes.ParseAction(y.Action)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	enabled := true
	if y.Enabled != nil {
		enabled = *y.Enabled
	}

	rule := Rule{
		ID:            y.ID,
		Name:          y.Name,
		Kinds:         kinds,
		MinStrictness: strictness,
		Enabled:       enabled,
		Priority:      y.Priority,
		Action:        action,
	}
	if err := rule.validate(); err != nil {
		return Rule{}, err
	}
	return rule, nil
}
