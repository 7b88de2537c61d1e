// Package view prepares remote content for HTML rendering. Descriptions
// arrive from the content API as markdown or raw HTML; both are sanitized
// before reaching a template.
package view

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var policy = bluemonday.UGCPolicy()

// RenderDescription converts a description to safe HTML. Markdown is
// rendered first; the result (or raw HTML input) is sanitized either way.
func RenderDescription(body string) template.HTML {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if looksLikeHTML(body) {
		return template.HTML(policy.Sanitize(body))
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		// fall back to the escaped plain text
		return template.HTML(template.HTMLEscapeString(body))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// SanitizeText strips all markup, for plain-text slots like <title>.
func SanitizeText(body string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(body))
}

func looksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">")
}
