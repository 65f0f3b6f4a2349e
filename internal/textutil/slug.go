package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks covers the Combining Diacritical Marks block (U+0300–U+036F).
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// slugSeparatorPattern matches runs of characters that are not slug-safe.
var slugSeparatorPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug canonicalizes text into its comparable form: "Bíceps Femoral!!" becomes
// "biceps-femoral". Empty input yields an empty string.
func Slug(text string) string {
	if text == "" {
		return ""
	}
	folded := FoldDiacritics(text)
	folded = strings.ToLower(folded)
	folded = slugSeparatorPattern.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}

// FoldDiacritics decomposes text and removes combining diacritical marks,
// leaving base letters in their original case.
func FoldDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

var stopwords = map[string]struct{}{
	"de":   {},
	"del":  {},
	"la":   {},
	"el":   {},
	"en":   {},
	"con":  {},
	"para": {},
}

// IsStopword reports whether token is one of the ignored function words.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// SlugTokens slugs value and returns its non-empty, non-stopword tokens in order.
func SlugTokens(value string) []string {
	slug := Slug(value)
	if slug == "" {
		return nil
	}
	parts := strings.Split(slug, "-")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || IsStopword(part) {
			continue
		}
		tokens = append(tokens, part)
	}
	return tokens
}
