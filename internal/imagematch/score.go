package imagematch

import (
	"strings"

	"gymtrack/internal/textutil"
)

// Score tiers. Exact and containment matches return immediately; the token
// overlap tier yields 1+|intersection| and is the only tier that receives the
// muscle-group bonus.
const (
	ScoreExactID      = 5
	ScoreExactName    = 4
	ScoreContainsID   = 3
	ScoreContainsName = 2
	minTokenOverlap   = 0.5
	muscleGroupBonus  = 1
)

// CatalogEntry is an exercise as seen by the matcher.
type CatalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle"`
}

// PreparedEntry caches the slugs of a catalog entry for one resolution run.
type PreparedEntry struct {
	CatalogEntry
	IDNorm     string
	NameNorm   string
	MuscleNorm string
	tokens     []string
}

// Prepare computes the normalized forms used by Score.
func Prepare(entry CatalogEntry) PreparedEntry {
	p := PreparedEntry{
		CatalogEntry: entry,
		IDNorm:       textutil.Slug(entry.ID),
		NameNorm:     textutil.Slug(entry.Name),
		MuscleNorm:   textutil.Slug(entry.MuscleGroup),
	}
	if p.NameNorm != "" {
		p.tokens = textutil.SlugTokens(p.NameNorm)
	} else {
		p.tokens = textutil.SlugTokens(p.IDNorm)
	}
	return p
}

// Score rates how well variant names entry. musclePrefix is the muscle group
// detected on the asset key, or empty.
//
// An empty IDNorm or NameNorm never counts as contained in (or containing) a
// variant; otherwise an entry without a usable name would match every asset.
func Score(variant string, entry PreparedEntry, musclePrefix string) int {
	switch {
	case variant == entry.IDNorm:
		return ScoreExactID
	case variant == entry.NameNorm:
		return ScoreExactName
	case containsEither(variant, entry.IDNorm):
		return ScoreContainsID
	case containsEither(variant, entry.NameNorm):
		return ScoreContainsName
	}

	variantTokens := textutil.SlugTokens(variant)
	if len(variantTokens) == 0 || len(entry.tokens) == 0 {
		return 0
	}
	score := tokenOverlapScore(variantTokens, entry.tokens)
	if musclePrefix != "" && entry.MuscleNorm == musclePrefix {
		// Applied even when the overlap score is zero, so a bare muscle-group
		// coincidence surfaces as a weak candidate for review.
		score += muscleGroupBonus
	}
	return score
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func tokenOverlapScore(variantTokens, entryTokens []string) int {
	intersect := 0
	for _, vt := range variantTokens {
		for _, et := range entryTokens {
			if vt == et {
				intersect++
				break
			}
		}
	}
	ratio := float64(intersect) / float64(max(len(variantTokens), len(entryTokens)))
	if ratio < minTokenOverlap {
		return 0
	}
	return 1 + intersect
}
