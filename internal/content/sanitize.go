// Package content cleans operator-authored rich text before it reaches the
// storefront.
package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips scripts, event handlers and unsafe URLs from HTML while
// keeping the formatting a blog editor produces.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a sanitizer on the bluemonday UGC policy. Links are
// forced to rel="nofollow noopener" and open in a new tab; images may only
// load over http(s).
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	p.AllowAttrs("style").OnElements("span", "p")
	p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").Globally()
	return &Sanitizer{policy: p}
}

// HTML returns body with disallowed markup removed.
func (s *Sanitizer) HTML(body string) string {
	return strings.TrimSpace(s.policy.Sanitize(body))
}

// Text strips all markup, for titles and excerpts.
func (s *Sanitizer) Text(body string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(body))
}
