package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Limits caps user-supplied text, counted in runes after normalization.
type Limits struct {
	MaxTitleRunes       int
	MaxDescriptionRunes int
	MaxCommentRunes     int
}

// DefaultLimits are used when a service is built without explicit limits.
var DefaultLimits = Limits{
	MaxTitleRunes:       120,
	MaxDescriptionRunes: 5000,
	MaxCommentRunes:     2000,
}

// Text is stored as plain text exactly as typed apart from whitespace
// cleanup. Angle brackets and ampersands are content; escaping is left to
// whoever renders it.
var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	blankLinesRE = regexp.MustCompile(`\n{3,}`)
)

// normalizeTitle trims s and collapses every whitespace run to one space.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// normalizeBody trims s, unifies line endings and keeps at most one blank
// line between paragraphs.
func normalizeBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSpace(s)
	return blankLinesRE.ReplaceAllString(s, "\n\n")
}

// checkText rejects input that is not valid UTF-8.
func checkText(fields ...string) error {
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return ErrInvalidText
		}
	}
	return nil
}

func tooLong(s string, max int) bool {
	return max > 0 && utf8.RuneCountInString(s) > max
}
