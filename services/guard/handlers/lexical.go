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
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// profanityWords is the exact-word denylist. Matches are word-bounded
// and case-insensitive; substrings inside longer words never match.
var profanityWords = []string{
	"damn", "hell", "crap", "bastard", "bitch", "shit", "fuck", "asshole",
	"dick", "piss", "slut", "whore",
}

// profanityRe matches any denylisted word at word boundaries.
var profanityRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(profanityWords, "|") + `)\b`)

// spamFamily is one weighted spam heuristic; the matched count times
// the weight contributes to the spam score.
type spamFamily struct {
	name   string
	weight int
	re     *regexp.Regexp
}

var spamFamilies = []spamFamily{
	{"lottery bait", 15, regexp.MustCompile(`(?i)\b(?:viagra|casino|lottery|jackpot)\b`)},
	{"call to action", 10, regexp.MustCompile(`(?i)(?:click here|act now|limited time|buy now|order now)`)},
	{"prize bait", 5, regexp.MustCompile(`(?i)\b(?:free|winner|prize|congratulations|guaranteed)\b`)},
	{"money amounts", 5, regexp.MustCompile(`[$€£]\s*\d[\d,]*`)},
	{"shouting", 5, regexp.MustCompile(`[A-Z]{10,}`)},
	{"punctuation runs", 5, regexp.MustCompile(`[!?]{3,}`)},
}

// spamThreshold is the weighted score above which content is classified
// as spam.
const spamThreshold = 30

// FilterLexical applies the profanity and spam filters.
//
// # Description
//
// Profanity: every denylisted word is masked in Sanitized with a run of
// '*' of equal length, and each instance lowers the score by 20 down to
// a floor of 20; any match is threat Low.
//
// Spam: each family contributes matches x weight. A total above the
// threshold raises the threat to Medium and lowers the score to
// max(10, 100 - total). The total is always recorded in Meta.
func FilterLexical(content []byte, meta Metadata) Outcome {
	text := string(content)
	out := clean()

	masked := profanityRe.ReplaceAllStringFunc(text, func(word string) string {
		return strings.Repeat("*", len(word))
	})
	if masked != text {
		count := len(profanityRe.FindAllString(text, -1))
		score := 100 - float64(count)*20
		if score < 20 {
			score = 20
		}
		out.Issues = append(out.Issues, fmt.Sprintf("profanity detected: %d instance(s) masked", count))
		out.Score = score
		out.Threat = datatypes.MaxThreat(out.Threat, datatypes.ThreatLow)
		out.Sanitized = []byte(masked)
	}

	spamScore := 0
	var spamHits []string
	for _, family := range spamFamilies {
		if n := len(family.re.FindAllString(text, -1)); n > 0 {
			spamScore += n * family.weight
			spamHits = append(spamHits, family.name)
		}
	}
	if spamScore > spamThreshold {
		floor := float64(100 - spamScore)
		if floor < 10 {
			floor = 10
		}
		if floor < out.Score {
			out.Score = floor
		}
		out.Issues = append(out.Issues, fmt.Sprintf("spam indicators (%s) scored %d, over threshold %d",
			strings.Join(spamHits, ", "), spamScore, spamThreshold))
		out.Threat = datatypes.MaxThreat(out.Threat, datatypes.ThreatMedium)
	}
	if spamScore > 0 {
		out.Meta = map[string]any{"spam_score": spamScore}
	}

	return out
}
