// Package fuzzy provides the string similarity and normalization
// primitives used by the dedup engine: Jaro-Winkler, token overlap, and a
// handful of narrow equality-key helpers.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokens dropped from names before comparison. These are the common UK
// pub-naming noise words that otherwise dominate similarity scores.
var stopTokens = map[string]bool{
	"pub":     true,
	"inn":     true,
	"bar":     true,
	"the":     true,
	"&":       true,
	"ltd":     true,
	"co":      true,
	"company": true,
}

// Punctuation is deleted outright, not spaced: "king's" and "kings"
// normalize identically.
var nonAlnumSpaceRe = regexp.MustCompile(`[^a-z0-9 ]+`)

// foldDiacritics strips combining marks after NFKD decomposition, so
// "Café" and "Cafe" normalize identically.
var foldDiacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, folds diacritics, strips punctuation, collapses
// whitespace, and removes stand-alone noise tokens.
func Normalize(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumSpaceRe.ReplaceAllString(s, "")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if !stopTokens[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// Tokens splits a string into lowercased whitespace-separated tokens.
func Tokens(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// TokenOverlap counts tokens present in both strings. Set semantics: a
// repeated token counts once.
func TokenOverlap(a, b string) int {
	setA := make(map[string]bool)
	for _, t := range Tokens(a) {
		setA[t] = true
	}
	overlap := 0
	seen := make(map[string]bool)
	for _, t := range Tokens(b) {
		if setA[t] && !seen[t] {
			overlap++
			seen[t] = true
		}
	}
	return overlap
}

// Jaro computes the standard Jaro similarity in [0,1].
func Jaro(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	window := max(la, lb)/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, la)
	matchedB := make([]bool, lb)
	matches := 0
	for i := 0; i < la; i++ {
		lo := max(0, i-window)
		hi := min(lb, i+window+1)
		for j := lo; j < hi; j++ {
			if matchedB[j] || a[i] != b[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	// Count transpositions via an in-order walk of matched characters.
	transpositions := 0
	j := 0
	for i := 0; i < la; i++ {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(la) + m/float64(lb) + (m-t)/m) / 3
}

const (
	winklerPrefixScale = 0.1
	winklerMaxPrefix   = 4
	winklerThreshold   = 0.7
)

// JaroWinkler applies the Winkler common-prefix boost on top of Jaro. The
// boost only applies when the base similarity is at least 0.7.
func JaroWinkler(a, b string) float64 {
	j := Jaro(a, b)
	if j < winklerThreshold {
		return j
	}
	prefix := 0
	for i := 0; i < min(min(len(a), len(b)), winklerMaxPrefix); i++ {
		if a[i] != b[i] {
			break
		}
		prefix++
	}
	return j + float64(prefix)*winklerPrefixScale*(1-j)
}

var digitsRe = regexp.MustCompile(`\d+`)

// Digits extracts all digits from a string, concatenated. Used as a phone
// equality key.
func Digits(s string) string {
	return strings.Join(digitsRe.FindAllString(s, -1), "")
}

// EmailLocal returns the lowercased local part of an email address (the
// substring before '@'), or the whole lowercased string if no '@' exists.
func EmailLocal(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if at := strings.IndexByte(s, '@'); at >= 0 {
		return s[:at]
	}
	return s
}

// FlatPostcode strips all whitespace and uppercases, producing the exact
// equality key used by dedup candidate generation. Independent from the
// richer structural parser in the postcode package.
func FlatPostcode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
