// Package imagematch reconciles Cloudinary asset keys with exercise catalog
// entries.
//
// The pipeline runs in four steps, each exposed for reuse and testing:
//
//   - Decompose: ExtractIdentifier strips the storage folder, then
//     StripGeneratedSuffix drops upload hashes and pixel-dimension tails and
//     DropMuscleGroupPrefix removes a leading muscle-group segment.
//   - Variants: BuildVariants produces the deduplicated slugs tried for an asset.
//   - Score: Score rates one variant against one prepared catalog entry.
//   - Resolve: Resolver keeps the best score per entry, ranks entries, and
//     accepts the top one only when it scores at least MinAcceptScore and beats
//     the runner-up outright. Everything else is routed to review with the top
//     MaxSuggestions candidates.
//
// All functions are pure; a Resolver holds no mutable state after construction
// and may be shared between goroutines.
package imagematch
