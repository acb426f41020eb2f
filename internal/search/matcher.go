// Package search provides the free-text matcher used to filter idea
// listings. A query matches a document when its case-folded, whitespace
// normalized form occurs as a substring of any of the document's fields.
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware: full case folding and NFC normalization via x/text
//   - Immutable after construction (safe for concurrent use)
//   - Functional options for the rarely needed all-terms mode
package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Option configures a Matcher.
type Option func(*config)

type config struct {
	allTerms bool
}

// WithAllTerms switches from whole-phrase substring matching to requiring
// every whitespace-separated term of the query to occur somewhere in the
// document, in any order and in any field.
func WithAllTerms() Option {
	return func(c *config) { c.allTerms = true }
}

// Matcher is a compiled query.
type Matcher struct {
	phrase string
	terms  []string
	cfg    config
}

// New compiles query. An empty or blank query yields a matcher that
// matches everything.
func New(query string, opts ...Option) *Matcher {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	phrase := Normalize(query)
	m := &Matcher{phrase: phrase, cfg: cfg}
	if phrase != "" {
		m.terms = strings.Fields(phrase)
	}
	return m
}

// Empty reports whether the matcher accepts every document.
func (m *Matcher) Empty() bool { return m == nil || m.phrase == "" }

// Query returns the normalized query text.
func (m *Matcher) Query() string {
	if m == nil {
		return ""
	}
	return m.phrase
}

// Match reports whether the query occurs in any of fields.
func (m *Matcher) Match(fields ...string) bool {
	if m.Empty() {
		return true
	}
	folded := make([]string, len(fields))
	for i, f := range fields {
		folded[i] = Normalize(f)
	}
	if !m.cfg.allTerms {
		for _, f := range folded {
			if strings.Contains(f, m.phrase) {
				return true
			}
		}
		return false
	}
	for _, term := range m.terms {
		found := false
		for _, f := range folded {
			if strings.Contains(f, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var (
	spaceRE = regexp.MustCompile(`\s+`)
	folder  = cases.Fold()
)

// Normalize case-folds s, applies NFC and collapses runs of whitespace to a
// single space.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = folder.String(s)
	s = norm.NFC.String(s)
	return spaceRE.ReplaceAllString(s, " ")
}
