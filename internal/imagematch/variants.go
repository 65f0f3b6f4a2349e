package imagematch

import (
	"strings"

	"gymtrack/internal/textutil"
)

// BuildVariants returns the slugs an asset key is matched with, in order of
// first occurrence: the raw identifier, the identifier without generated
// suffixes, and that form without a muscle-group prefix. Empty and duplicate
// slugs are dropped, so an asset with no usable text yields no variants.
func BuildVariants(assetKey, storageFolder string, prefixes Vocabulary) []string {
	base := ExtractIdentifier(assetKey, storageFolder)
	if base == "" {
		return nil
	}
	cleaned := StripGeneratedSuffix(base)
	withoutPrefix := DropMuscleGroupPrefix(cleaned, prefixes)

	candidates := []string{
		textutil.Slug(underscoresToHyphens(base)),
		textutil.Slug(underscoresToHyphens(cleaned)),
		textutil.Slug(underscoresToHyphens(withoutPrefix)),
	}

	variants := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		variants = append(variants, c)
	}
	return variants
}

func underscoresToHyphens(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}
