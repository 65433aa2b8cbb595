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
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianGuard/services/guard/datatypes"
)

// allowedTags maps each permitted tag to its per-tag attribute
// allow-list. Attributes in globalAttrs are permitted on every tag.
// Anything outside these lists is stripped, not escaped.
var allowedTags = map[string]map[string]bool{
	"p":          nil,
	"br":         nil,
	"hr":         nil,
	"b":          nil,
	"i":          nil,
	"u":          nil,
	"strong":     nil,
	"em":         nil,
	"h1":         nil,
	"h2":         nil,
	"h3":         nil,
	"h4":         nil,
	"h5":         nil,
	"h6":         nil,
	"ul":         nil,
	"ol":         nil,
	"li":         nil,
	"blockquote": nil,
	"code":       nil,
	"pre":        nil,
	"span":       nil,
	"div":        nil,
	"table":      nil,
	"thead":      nil,
	"tbody":      nil,
	"tr":         nil,
	"th":         nil,
	"td":         nil,
	"a":          {"href": true, "title": true, "rel": true},
	"img":        {"src": true, "alt": true, "width": true, "height": true},
}

// globalAttrs is the wildcard attribute allow-list.
var globalAttrs = map[string]bool{
	"class": true,
	"id":    true,
	"title": true,
}

var (
	// dangerousElementRe removes script/style-class elements together
	// with their content; leaving script bodies behind as bare text
	// would only feed noise to the downstream injection scan.
	dangerousElementRe = regexp.MustCompile(`(?is)<(script|style|iframe|object|embed)\b[^>]*>.*?</\s*(script|style|iframe|object|embed)\s*>`)

	// htmlTagRe matches any tag-shaped token, comments included.
	htmlTagRe = regexp.MustCompile(`(?s)<[^>]*>`)

	// tagNameRe extracts the tag name and whether it is a closing tag.
	tagNameRe = regexp.MustCompile(`^<\s*(/?)\s*([a-zA-Z][a-zA-Z0-9]*)`)

	// attrRe extracts key="value", key='value', and bare key=value pairs.
	attrRe = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9-]*)\s*=\s*("[^"]*"|'[^']*'|[^\s/>]+)`)

	// unsafeSchemeRe rejects attribute values that smuggle a script
	// scheme, whitespace and control characters notwithstanding.
	unsafeSchemeRe = regexp.MustCompile(`(?i)^\s*(?:java|vb)\s*script\s*:`)
)

// SanitizeHTML rewrites HTML down to the tag/attribute allow-list.
//
// # Description
//
// Tags outside allowedTags are removed; allowed tags are rebuilt in a
// canonical lowercase form keeping only allow-listed attributes with
// safe values. The rewrite is idempotent: sanitizing already-sanitized
// output is a no-op. When the output differs from the input the handler
// reports one issue, score 80, threat Low, and sets Sanitized so every
// subsequent rule in the run sees the cleaned form.
func SanitizeHTML(content []byte, meta Metadata) Outcome {
	cleaned := sanitizeHTMLString(string(content))
	if cleaned == string(content) {
		return clean()
	}
	return Outcome{
		Issues:    []string{"HTML content was sanitized: disallowed tags or attributes removed"},
		Score:     80,
		Threat:    datatypes.ThreatLow,
		Sanitized: []byte(cleaned),
	}
}

// sanitizeHTMLString performs the actual rewrite.
func sanitizeHTMLString(in string) string {
	out := dangerousElementRe.ReplaceAllString(in, "")

	return htmlTagRe.ReplaceAllStringFunc(out, func(tag string) string {
		name := tagNameRe.FindStringSubmatch(tag)
		if name == nil {
			return "" // comment, doctype, or malformed tag
		}
		closing := name[1] == "/"
		tagName := strings.ToLower(name[2])

		perTag, ok := allowedTags[tagName]
		if !ok {
			return ""
		}
		if closing {
			return "</" + tagName + ">"
		}

		var b strings.Builder
		b.WriteByte('<')
		b.WriteString(tagName)
		for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
			attrName := strings.ToLower(m[1])
			if !globalAttrs[attrName] && (perTag == nil || !perTag[attrName]) {
				continue
			}
			value := strings.Trim(m[2], `"'`)
			// Keep rebuilt tags parseable and the rewrite a fixpoint.
			value = strings.NewReplacer(`"`, "", "'", "", "<", "", ">", "").Replace(value)
			if unsafeSchemeRe.MatchString(value) {
				continue
			}
			// Emit the value verbatim: escape-encoding here would mutate
			// on every pass and break the fixpoint.
			b.WriteByte(' ')
			b.WriteString(attrName)
			b.WriteString(`="`)
			b.WriteString(value)
			b.WriteByte('"')
		}
		if strings.HasSuffix(strings.TrimSpace(strings.TrimSuffix(tag, ">")), "/") {
			b.WriteString("/>")
		} else {
			b.WriteByte('>')
		}
		return b.String()
	})
}
