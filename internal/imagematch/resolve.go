package imagematch

import (
	"sort"
)

const (
	// MinAcceptScore is the lowest top score eligible for unattended acceptance.
	MinAcceptScore = 2
	// MaxSuggestions bounds the candidates attached to a review entry.
	MaxSuggestions = 5
	// OverrideScore is the synthetic score reported for manual overrides.
	OverrideScore = 99
)

// Candidate is one catalog entry ranked for a single asset key.
type Candidate struct {
	ID          string `json:"id"`
	Score       int    `json:"score"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle"`
}

// Outcome is the resolution of one asset key. Exactly one of Accepted or
// NeedsReview() holds.
type Outcome struct {
	AssetKey     string
	Variants     []string
	MusclePrefix string
	Accepted     bool
	ExerciseID   string
	Score        int
	// Candidates holds every entry with a non-zero score, best first.
	Candidates []Candidate
	// Override is set when a manual mapping decided the outcome.
	Override bool
	// UnknownOverride names an override target missing from the catalog.
	UnknownOverride string
}

// NeedsReview reports whether the asset must be adjudicated by a person.
func (o Outcome) NeedsReview() bool {
	return !o.Accepted
}

// Suggestions returns the top candidates shown to reviewers.
func (o Outcome) Suggestions() []Candidate {
	if len(o.Candidates) <= MaxSuggestions {
		return o.Candidates
	}
	return o.Candidates[:MaxSuggestions]
}

// Options configures a Resolver.
type Options struct {
	// StorageFolder is stripped from asset keys before matching.
	StorageFolder string
	// Prefixes is the muscle-group vocabulary; nil selects DefaultMuscleGroups.
	Prefixes Vocabulary
	// Overrides maps an asset key, or its extracted identifier, to an exercise id.
	Overrides map[string]string
}

// Resolver matches asset keys against a fixed catalog snapshot.
type Resolver struct {
	folder    string
	prefixes  Vocabulary
	entries   []PreparedEntry
	byID      map[string]int
	overrides map[string]string
}

// NewResolver prepares catalog for repeated resolution. Catalog order is kept
// and decides ties between equally scored candidates.
func NewResolver(catalog []CatalogEntry, opts Options) *Resolver {
	prefixes := opts.Prefixes
	if prefixes == nil {
		prefixes = DefaultMuscleGroups()
	}
	r := &Resolver{
		folder:    opts.StorageFolder,
		prefixes:  prefixes,
		entries:   make([]PreparedEntry, 0, len(catalog)),
		byID:      make(map[string]int, len(catalog)),
		overrides: opts.Overrides,
	}
	for _, entry := range catalog {
		if _, dup := r.byID[entry.ID]; dup {
			continue
		}
		r.byID[entry.ID] = len(r.entries)
		r.entries = append(r.entries, Prepare(entry))
	}
	return r
}

// Len returns the number of catalog entries considered.
func (r *Resolver) Len() int {
	return len(r.entries)
}

// Resolve decides assetKey. It never fails: anything short of a confident,
// unambiguous match comes back as needing review.
func (r *Resolver) Resolve(assetKey string) Outcome {
	identifier := ExtractIdentifier(assetKey, r.folder)
	outcome := Outcome{
		AssetKey:     assetKey,
		Variants:     BuildVariants(assetKey, r.folder, r.prefixes),
		MusclePrefix: DetectMuscleGroupPrefix(identifier, r.prefixes),
	}

	if exerciseID, ok := r.override(assetKey, identifier); ok {
		outcome.Override = true
		idx, known := r.byID[exerciseID]
		if !known {
			outcome.UnknownOverride = exerciseID
			return outcome
		}
		entry := r.entries[idx]
		outcome.Accepted = true
		outcome.ExerciseID = exerciseID
		outcome.Score = OverrideScore
		outcome.Candidates = []Candidate{candidateFor(entry, OverrideScore)}
		return outcome
	}

	outcome.Candidates = r.rank(outcome.Variants, outcome.MusclePrefix)
	if accepted(outcome.Candidates) {
		best := outcome.Candidates[0]
		outcome.Accepted = true
		outcome.ExerciseID = best.ID
		outcome.Score = best.Score
	}
	return outcome
}

func (r *Resolver) override(assetKey, identifier string) (string, bool) {
	if len(r.overrides) == 0 {
		return "", false
	}
	if id := r.overrides[assetKey]; id != "" {
		return id, true
	}
	if id := r.overrides[identifier]; id != "" {
		return id, true
	}
	return "", false
}

// rank scores every variant against every entry, keeps each entry's best
// score, and orders entries by score. Entries enter the ranking in the order
// they first scored, which the stable sort preserves among ties.
func (r *Resolver) rank(variants []string, musclePrefix string) []Candidate {
	best := make(map[int]int)
	var order []int
	for _, variant := range variants {
		for idx, entry := range r.entries {
			score := Score(variant, entry, musclePrefix)
			if score == 0 {
				continue
			}
			prev, seen := best[idx]
			if !seen {
				order = append(order, idx)
			}
			if score > prev {
				best[idx] = score
			}
		}
	}

	candidates := make([]Candidate, 0, len(order))
	for _, idx := range order {
		candidates = append(candidates, candidateFor(r.entries[idx], best[idx]))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func accepted(candidates []Candidate) bool {
	if len(candidates) == 0 {
		return false
	}
	top := candidates[0].Score
	if top < MinAcceptScore {
		return false
	}
	return len(candidates) == 1 || top > candidates[1].Score
}

func candidateFor(entry PreparedEntry, score int) Candidate {
	return Candidate{
		ID:          entry.ID,
		Score:       score,
		Name:        entry.Name,
		MuscleGroup: entry.MuscleGroup,
	}
}

// ReviewEntry is one asset the resolver could not accept.
type ReviewEntry struct {
	PublicID    string      `json:"publicId"`
	Suggestions []Candidate `json:"suggestions"`
}

// Partition splits resolved assets into accepted mappings and review entries.
// Every input key lands in exactly one of the two.
type Partition struct {
	Accepted map[string]string
	Review   []ReviewEntry
	Outcomes []Outcome
}

// ResolveAll resolves every key in order.
func (r *Resolver) ResolveAll(assetKeys []string) Partition {
	p := Partition{
		Accepted: make(map[string]string, len(assetKeys)),
		Review:   make([]ReviewEntry, 0),
		Outcomes: make([]Outcome, 0, len(assetKeys)),
	}
	for _, key := range assetKeys {
		outcome := r.Resolve(key)
		p.Outcomes = append(p.Outcomes, outcome)
		if outcome.Accepted {
			p.Accepted[key] = outcome.ExerciseID
			continue
		}
		suggestions := outcome.Suggestions()
		if suggestions == nil {
			suggestions = []Candidate{}
		}
		p.Review = append(p.Review, ReviewEntry{PublicID: key, Suggestions: suggestions})
	}
	return p
}
