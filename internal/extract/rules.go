// Package extract pulls structured job fields out of free text.
//
// Every extractor is an ordered list of rules evaluated until the first match.
// Nothing here fails: unmatched input yields a documented default.
package extract

import (
	"regexp"
	"strings"
)

// patternRule matches a regular expression and yields the given capture group.
type patternRule struct {
	name    string
	pattern *regexp.Regexp
	group   int
}

func (r patternRule) match(text string) (string, bool) {
	m := r.pattern.FindStringSubmatch(text)
	if m == nil || len(m) <= r.group {
		return "", false
	}
	value := strings.TrimSpace(m[r.group])
	return value, value != ""
}

// keywordRule yields value when any keyword is a substring of the lowercased text.
type keywordRule struct {
	value    string
	keywords []string
}

func (r keywordRule) match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return r.value, true
		}
	}
	return "", false
}

type matcher interface {
	match(text string) (string, bool)
}

func firstMatch[R matcher](rules []R, text, fallback string) string {
	for _, r := range rules {
		if value, ok := r.match(text); ok {
			return value
		}
	}
	return fallback
}
