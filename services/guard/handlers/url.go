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
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// allowedSchemes is the URL scheme allow-list.
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ftps":  true,
}

// shortenerDomains are known URL shorteners; shortened links hide their
// destination and are treated as suspicious.
var shortenerDomains = map[string]bool{
	"bit.ly": true, "tinyurl.com": true, "goo.gl": true, "t.co": true,
	"ow.ly": true, "is.gd": true, "buff.ly": true, "rb.gy": true,
}

var (
	rawIPv4HostRe     = regexp.MustCompile(`^\d{1,3}(?:\.\d{1,3}){3}$`)
	hyphenHeavyHostRe = regexp.MustCompile(`^(?:[a-z0-9]+-){3,}`)
)

// CheckURL validates URL content.
//
// # Description
//
// Parses the URL and applies, in order: structural checks (empty scheme
// or host), the scheme allow-list, the length ceiling, and a set of
// suspicious-host heuristics (raw IPv4 hosts, known shorteners,
// hyphen-heavy domains). At Strict and above, plain http is additionally
// flagged as a policy finding (score 70, threat Low) without blocking.
//
// Multiple findings aggregate like the pipeline itself: the lowest
// score and the highest threat win.
func CheckURL(content []byte, meta Metadata) Outcome {
	raw := strings.TrimSpace(string(content))

	parsed, err := url.Parse(raw)
	if err != nil {
		return Outcome{
			Issues: []string{fmt.Sprintf("URL could not be parsed: %v", err)},
			Score:  0,
			Threat: datatypes.ThreatLow,
		}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Outcome{
			Issues: []string{"URL is missing a scheme or host"},
			Score:  0,
			Threat: datatypes.ThreatLow,
		}
	}

	out := clean()
	lower := func(score float64) {
		if score < out.Score {
			out.Score = score
		}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !allowedSchemes[scheme] {
		out.Issues = append(out.Issues, fmt.Sprintf("URL scheme %q is not permitted", scheme))
		lower(30)
		out.Threat = datatypes.MaxThreat(out.Threat, datatypes.ThreatMedium)
	}

	if limit := meta.Limits.MaxURLLen; limit > 0 && utf8.RuneCountInString(raw) > limit {
		out.Issues = append(out.Issues, fmt.Sprintf("URL length %d exceeds limit %d characters", utf8.RuneCountInString(raw), limit))
		lower(40)
		out.Threat = datatypes.MaxThreat(out.Threat, datatypes.ThreatLow)
	}

	host := strings.ToLower(parsed.Hostname())
	if reason := suspiciousHost(host); reason != "" {
		out.Issues = append(out.Issues, fmt.Sprintf("suspicious URL host: %s", reason))
		lower(40)
		out.Threat = datatypes.MaxThreat(out.Threat, datatypes.ThreatMedium)
	}

	// Policy check, not a hard block: insecure transport at Strict+.
	if meta.Strictness >= datatypes.StrictnessStrict && scheme == "http" {
		out.Issues = append(out.Issues, "URL uses insecure http transport")
		lower(70)
		out.Threat = datatypes.MaxThreat(out.Threat, datatypes.ThreatLow)
	}

	return out
}

// suspiciousHost returns a reason string when the host looks suspicious,
// or "" when it does not.
func suspiciousHost(host string) string {
	switch {
	case rawIPv4HostRe.MatchString(host):
		return "raw IPv4 address"
	case shortenerDomains[host]:
		return fmt.Sprintf("known URL shortener %s", host)
	case hyphenHeavyHostRe.MatchString(host):
		return "hyphen-heavy domain"
	default:
		return ""
	}
}
