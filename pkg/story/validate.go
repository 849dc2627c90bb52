package story

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinMeaningfulChars is the floor below which a body is not worth narrating.
const MinMeaningfulChars = 10

// ignoredRunes are punctuation marks that do not count towards content length.
const ignoredRunes = ".,،؛!؟:()-"

// byteOrderMark is stripped like whitespace; editors leave it at the start of bodies.
const byteOrderMark = '\uFEFF'

// MeaningfulLength counts runes left after removing whitespace and punctuation.
func MeaningfulLength(text string) int {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == byteOrderMark || strings.ContainsRune(ignoredRunes, r) {
			return -1
		}
		return r
	}, text)
	return utf8.RuneCountInString(stripped)
}

// IsValidContent reports whether text holds enough content to synthesize.
func IsValidContent(text string) bool {
	if text == "" {
		return false
	}
	return MeaningfulLength(text) >= MinMeaningfulChars
}
