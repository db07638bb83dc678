// Package english decides whether extracted PDF text is readable English or
// scanner garbage, using the ratio of tokens found in an embedded word list.
package english

import (
	_ "embed"
	"strings"
	"unicode"
)

//go:embed words.txt
var wordData string

var words = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(wordData) {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}()

// DefaultThreshold is the minimum known-word ratio for text to count as English.
const DefaultThreshold = 0.05

// Ratio returns the fraction of alphabetic tokens found in the word list.
// Text with no alphabetic tokens has ratio zero.
func Ratio(text string) float64 {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(tokens) == 0 {
		return 0
	}
	known := 0
	for _, tok := range tokens {
		if _, ok := words[tok]; ok {
			known++
		}
	}
	return float64(known) / float64(len(tokens))
}

// IsEnglish reports whether the known-word ratio meets the threshold.
// A non-positive threshold falls back to DefaultThreshold.
func IsEnglish(text string, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Ratio(text) >= threshold
}
