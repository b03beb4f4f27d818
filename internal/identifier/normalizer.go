// Package identifier converts arbitrary folder and column names into safe
// SQL identifiers, deduplicating collisions deterministically.
package identifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxLength is the Postgres identifier length limit.
const maxLength = 63

var (
	nonAlnumUnderscore = regexp.MustCompile(`[^a-z0-9_]+`)
	repeatedUnderscore = regexp.MustCompile(`_+`)
)

// Normalize transforms s into a SQL-safe identifier: Unicode-decomposed
// and stripped to ASCII letters/digits/underscore, punctuation and
// whitespace collapsed to a single underscore, lowercased, a leading
// digit prefixed with an underscore, and truncated to 63 characters. An
// empty result becomes "col". Normalize is pure and idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(s string) string {
	ascii := toASCII(s)
	lower := strings.ToLower(ascii)
	collapsed := nonAlnumUnderscore.ReplaceAllString(lower, "_")
	collapsed = repeatedUnderscore.ReplaceAllString(collapsed, "_")
	collapsed = strings.Trim(collapsed, "_")

	if collapsed == "" {
		return "col"
	}
	if unicode.IsDigit(rune(collapsed[0])) {
		collapsed = "_" + collapsed
	}
	if len(collapsed) > maxLength {
		collapsed = strings.TrimRight(collapsed[:maxLength], "_")
		if collapsed == "" {
			return "col"
		}
	}
	return collapsed
}

// Valid reports whether s is already in normalized form: lowercase
// ASCII letters, digits, and underscores only, not starting with a
// digit, and within the length limit. Callers that accept a table name
// from outside the engine (a CLI flag, for instance) should check this
// before splicing the name into DDL text.
func Valid(s string) bool {
	if s == "" || len(s) > maxLength {
		return false
	}
	if unicode.IsDigit(rune(s[0])) {
		return false
	}
	return !nonAlnumUnderscore.MatchString(s)
}

// toASCII decomposes s (NFKD) and drops every rune outside the ASCII
// range, so accented letters fold to their base form instead of
// disappearing outright.
func toASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(isNonASCIIMark)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isNonASCIIMark(r rune) bool {
	return r > unicode.MaxASCII
}

// Dedup disambiguates a sequence of already-normalized names in input
// order, appending "_2", "_3", … to every name after the first occurrence
// of a given value. It checks each candidate against every name already
// assigned, not just against the original's first occurrence, so a
// generated suffix can never collide with an earlier input name (e.g.
// ["a", "a_2", "a"] dedups to ["a", "a_2", "a_3"], not a repeated
// "a_2"). Dedup is the only source of non-collision names; callers must
// not invent their own suffixes.
func Dedup(names []string) []string {
	taken := make(map[string]bool, len(names))
	out := make([]string, len(names))

	for i, name := range names {
		candidate := name
		for n := 2; taken[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		taken[candidate] = true
		out[i] = candidate
	}

	return out
}

// NormalizeAndDedup runs Normalize over every name, then Dedup over the
// normalized results.
func NormalizeAndDedup(names []string) []string {
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = Normalize(n)
	}
	return Dedup(normalized)
}

// TableName derives a target table name from a leaf folder's path-parts
// tuple: each part normalized independently, then joined with
// underscore, then truncated to the identifier length limit as a whole.
func TableName(pathParts []string) string {
	parts := make([]string, len(pathParts))
	for i, p := range pathParts {
		parts[i] = Normalize(p)
	}
	joined := repeatedUnderscore.ReplaceAllString(strings.Join(parts, "_"), "_")
	joined = strings.Trim(joined, "_")
	if len(joined) > maxLength {
		joined = strings.TrimRight(joined[:maxLength], "_")
	}
	if joined == "" {
		return "col"
	}
	return joined
}
