package imagematch

import (
	"regexp"
	"strings"
)

var (
	uploadHashPattern = regexp.MustCompile(`(?i)^[a-z0-9]{5,8}$`)
	digitPattern      = regexp.MustCompile(`\d`)
	pixelSizePattern  = regexp.MustCompile(`(?i)^\d{2,4}x\d{2,4}$`)
)

var defaultMuscleGroups = []string{
	"pecho", "espalda", "biceps", "triceps", "femoral", "cuadricep",
	"pantorrillas", "gluteo", "gluteos", "abdominales", "abdomen",
	"hombro", "hombros", "pierna", "piernas", "brazos", "brazo", "core",
}

// Vocabulary is a set of muscle-group tokens recognized as asset key prefixes.
type Vocabulary map[string]struct{}

// NewVocabulary builds a vocabulary from the given words.
func NewVocabulary(words ...string) Vocabulary {
	v := make(Vocabulary, len(words))
	for _, w := range words {
		if w != "" {
			v[w] = struct{}{}
		}
	}
	return v
}

// DefaultMuscleGroups returns the built-in muscle-group vocabulary.
func DefaultMuscleGroups() Vocabulary {
	return NewVocabulary(defaultMuscleGroups...)
}

// Has reports whether token is in the vocabulary.
func (v Vocabulary) Has(token string) bool {
	_, ok := v[token]
	return ok
}

// ExtractIdentifier returns the part of assetKey that names the exercise. Keys
// under storageFolder lose that prefix; other hierarchical keys keep only their
// last non-empty segment.
func ExtractIdentifier(assetKey, storageFolder string) string {
	if assetKey == "" {
		return ""
	}
	if prefix := storageFolder + "/"; strings.HasPrefix(assetKey, prefix) {
		return assetKey[len(prefix):]
	}
	if strings.Contains(assetKey, "/") {
		parts := nonEmpty(strings.Split(assetKey, "/"))
		if len(parts) == 0 {
			return ""
		}
		return parts[len(parts)-1]
	}
	return assetKey
}

// StripGeneratedSuffix drops an upload hash tail (5–8 alphanumerics with at
// least one digit) and then a pixel-dimension tail such as 800x600. Empty
// segments are discarded before the checks.
func StripGeneratedSuffix(identifier string) string {
	if identifier == "" {
		return ""
	}
	parts := nonEmpty(strings.Split(identifier, "_"))
	if len(parts) == 0 {
		return identifier
	}
	if last := parts[len(parts)-1]; uploadHashPattern.MatchString(last) && digitPattern.MatchString(last) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 0 && pixelSizePattern.MatchString(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "_")
}

// DropMuscleGroupPrefix removes the first segment when it is a known muscle
// group and at least one more segment follows.
func DropMuscleGroupPrefix(identifier string, prefixes Vocabulary) string {
	parts := nonEmpty(strings.Split(identifier, "_"))
	if len(parts) > 1 && prefixes.Has(parts[0]) {
		return strings.Join(parts[1:], "_")
	}
	return identifier
}

// DetectMuscleGroupPrefix returns the raw first segment of identifier when it
// is a known muscle group, or an empty string. The segment is compared as-is,
// without slugging.
func DetectMuscleGroupPrefix(identifier string, prefixes Vocabulary) string {
	if identifier == "" {
		return ""
	}
	first, _, _ := strings.Cut(identifier, "_")
	if prefixes.Has(first) {
		return first
	}
	return ""
}

func nonEmpty(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
