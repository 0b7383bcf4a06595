package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName prepares a scientific name for storage and comparison:
//   - trims leading/trailing whitespace
//   - compresses any run of whitespace (tabs, newlines, NBSP) into one space
//
// Case and diacritics are preserved: "Puma concolor" and "puma concolor"
// are different names as far as the registry is concerned.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// FoldText lowercases text, strips diacritics and compresses whitespace.
// It is used for tolerant matching (spreadsheet headers, correction rules),
// never for stored values.
func FoldText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(NormalizeName(folded))
}
