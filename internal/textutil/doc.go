// Package textutil provides the text canonicalization used to compare asset
// keys with exercise names, plus filename sanitization for uploads.
//
// Slug folds diacritics (NFD decomposition, combining marks removed),
// lowercases, collapses every run of characters outside [a-z0-9] into a single
// hyphen, and trims hyphens from both ends. SlugTokens splits a slug into
// hyphen-delimited tokens and drops Spanish function words that carry no
// matching signal.
package textutil
