// Package htmlsanitize cleans rich-text record descriptions before they are
// rendered. Backend descriptions may be plain text or editor HTML; both
// come out as safe template.HTML.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func descriptionPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		tableEls := []string{"table", "thead", "tbody", "tfoot", "tr", "th", "td"}
		p.AllowAttrs("class").OnElements(tableEls...)
		p.AllowStyles("width", "text-align", "vertical-align").OnElements(tableEls...)
		p.AllowElements("mark", "u", "s", "hr")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers, unsafe URLs and disallowed
// elements from s.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return descriptionPolicy().Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s has no markup at all.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into line breaks.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders a description of either form.
func PrepareForDisplay(s string) template.HTML {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}

// Excerpt is the tag-free first n runes of s, used on cards.
func Excerpt(s string, n int) string {
	plain := bluemonday.StrictPolicy().Sanitize(s)
	plain = strings.Join(strings.Fields(html.UnescapeString(plain)), " ")
	r := []rune(plain)
	if n <= 0 || len(r) <= n {
		return plain
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
