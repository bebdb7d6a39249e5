// Package tokenize turns raw strings into the normalized word terms the
// index and query engine operate on.
package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxWordLength caps the prefix fan-out of a single token (Design Notes §9).
const MaxWordLength = 30

// asciiFolder strips combining marks left behind by NFD decomposition,
// turning e.g. "é" (e + combining acute) into "e".
var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// extraFold covers letters with no Unicode decomposition into a base Latin
// letter, so folding doesn't silently drop them.
var extraFold = strings.NewReplacer(
	"ø", "o", "Ø", "O",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
	"œ", "oe", "Œ", "OE",
	"æ", "ae", "Æ", "AE",
	"ß", "ss",
	"ł", "l", "Ł", "L",
)

// Fold transliterates s to an ASCII approximation: diacritics are removed
// and a handful of letters without a Latin decomposition are substituted.
// Runes it cannot approximate are left as-is rather than dropped.
func Fold(s string) string {
	s = extraFold.Replace(s)
	folded, _, err := transform.String(asciiFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// Tokenize lowercases s and splits it on runs of non-alphanumeric runes,
// dropping empty terms. It does not fold — call Fold first if diacritic
// insensitivity is wanted.
func Tokenize(s string) []string {
	lower := strings.ToLower(s)

	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			terms = append(terms, current.String())
			current.Reset()
		}
	}

	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	if terms == nil {
		terms = []string{}
	}
	return terms
}

// Both returns the folded-form tokens and the raw-lowercase tokens of s.
// When folding makes no difference the two slices are equal.
func Both(s string) (folded []string, raw []string) {
	return Tokenize(Fold(s)), Tokenize(s)
}

// Prefixes returns every non-empty prefix (up to MaxWordLength runes) of
// every token, as a set.
func Prefixes(tokens []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range tokens {
		rs := []rune(tok)
		limit := len(rs)
		if limit > MaxWordLength {
			limit = MaxWordLength
		}
		for k := 1; k <= limit; k++ {
			out[string(rs[:k])] = struct{}{}
		}
	}
	return out
}

// dedupeRawFirst merges raw and folded term lists, keeping raw-first order
// and removing duplicates, per the query-echo rule in §4.4.
func dedupeRawFirst(raw, folded []string) []string {
	seen := make(map[string]struct{}, len(raw)+len(folded))
	out := make([]string, 0, len(raw)+len(folded))
	add := func(terms []string) {
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	add(raw)
	add(folded)
	return out
}

// QueryTerms computes the terms actually searched (used for the posting
// lookups) and the terms echoed back to the client, per §4.4: the folded
// form drives retrieval, the echo is the folded form alone unless the raw
// form differs, in which case raw is listed first.
func QueryTerms(q string) (retrieval []string, echo []string) {
	folded, raw := Both(q)
	retrieval = folded

	if equalTerms(folded, raw) {
		echo = folded
	} else {
		echo = dedupeRawFirst(raw, folded)
	}
	return retrieval, echo
}

func equalTerms(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
