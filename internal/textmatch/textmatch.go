// Package textmatch holds the case-insensitive term matching shared by the
// catalog, the localization validator and the scorer.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the case-folded NFC form of s. A Caser is stateful, so each call builds its own.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// StripMarks removes combining marks, so "Noël" becomes "Noel".
func StripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ContainsFold reports whether term occurs anywhere in text, ignoring case.
func ContainsFold(text, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	return strings.Contains(Fold(text), Fold(term))
}

// ContainsWord reports whether term occurs in text as a whole word, ignoring case.
// Terms written in scripts without word spacing (Han, Hiragana, Katakana, Thai)
// match as plain substrings.
func ContainsWord(text, term string) bool {
	return CountWord(text, term) > 0
}

// CountWord counts whole-word occurrences of term in text, ignoring case.
func CountWord(text, term string) int {
	term = strings.TrimSpace(term)
	if term == "" {
		return 0
	}
	haystack := Fold(text)
	needle := Fold(term)
	unspaced := isUnspaced(needle)
	count := 0
	for offset := 0; offset < len(haystack); {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(needle)
		if unspaced || (boundaryBefore(haystack, start) && boundaryAfter(haystack, end)) {
			count++
		}
		offset = start + max(1, len(needle))
	}
	return count
}

// FirstWord returns the first term from terms found in text as a whole word.
func FirstWord(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if ContainsWord(text, term) {
			return term, true
		}
	}
	return "", false
}

// ContainsWordPrefix reports whether term starts a word in text, ignoring case.
// The last word may carry an inflected ending, so "zuverlässig" matches
// "zuverlässiges" but not "unzuverlässig".
func ContainsWordPrefix(text, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	haystack := Fold(text)
	needle := Fold(term)
	if isUnspaced(needle) {
		return strings.Contains(haystack, needle)
	}
	for offset := 0; offset < len(haystack); {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		start := offset + idx
		if boundaryBefore(haystack, start) {
			return true
		}
		offset = start + len(needle)
	}
	return false
}

// FirstWordPrefix is FirstWord with ContainsWordPrefix matching.
func FirstWordPrefix(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if ContainsWordPrefix(text, term) {
			return term, true
		}
	}
	return "", false
}

// RuneLen counts characters, not bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to at most limit runes on a word boundary when one is close.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := limit
	for i := limit; i > limit*3/4; i-- {
		if unicode.IsSpace(r[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(r[:cut]), func(c rune) bool {
		return unicode.IsSpace(c) || unicode.IsPunct(c)
	})
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isUnspaced(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Thai) {
			return true
		}
	}
	return false
}
