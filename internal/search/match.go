package search

import (
	"regexp"
	"strings"
	"unicode"
)

var digitRun = regexp.MustCompile(`\d+`)

// Normalize lowercases s and drops every whitespace rune, so "Album 2" and
// "album2" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MatchesAlbumQuery reports whether query refers to the album called name.
//
// After normalizing both sides it accepts a substring match in either
// direction. Failing that, when the name carries a number, the query matches
// if it contains that number and its letters are a prefix of the name's
// letters ("aupo 2" matches "Aupodartho 2"). An empty query or name never
// matches.
func MatchesAlbumQuery(name, query string) bool {
	q := Normalize(query)
	if q == "" {
		return false
	}

	nameNorm := Normalize(name)
	if nameNorm == "" {
		return false
	}
	if strings.Contains(nameNorm, q) || strings.Contains(q, nameNorm) {
		return true
	}

	digits := digitRun.FindString(nameNorm)
	if digits == "" {
		return false
	}

	lettersInName := digitRun.ReplaceAllString(nameNorm, "")
	lettersInQuery := digitRun.ReplaceAllString(q, "")

	return strings.Contains(q, digits) && strings.HasPrefix(lettersInName, lettersInQuery)
}

// FuzzyMatch applies the album alias rules to any free-text name (album or song)
func FuzzyMatch(value, query string) bool {
	return MatchesAlbumQuery(value, query)
}

// ContainsFold reports whether sub occurs in s, ignoring case
func ContainsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
