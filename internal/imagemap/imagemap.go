// Package imagemap reads and writes the JSON files that pin Cloudinary assets
// to exercises: the generated auto map, the hand-curated manual map, an
// optional single override file, the review list, and the id template.
package imagemap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"gymtrack/internal/fileutil"
	"gymtrack/internal/imagematch"
	"gymtrack/internal/logging"
)

// Map pins asset public ids to exercise ids.
type Map map[string]string

// Source names the override files consulted for one run.
type Source struct {
	// MapFile, when set, replaces AutoMap and ManualMap entirely.
	MapFile   string
	AutoMap   string
	ManualMap string
}

// Load reads path and normalizes its contents against exerciseIDs. Missing,
// empty, unreadable, or malformed files all yield an empty map; problems other
// than a missing file are logged.
func Load(path string, exerciseIDs map[string]struct{}, logger *slog.Logger) Map {
	path = strings.TrimSpace(path)
	if path == "" {
		return Map{}
	}
	logger = logging.NewComponentLogger(logger, "imagemap")

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("override map unreadable; treating as empty", logging.String("path", path), logging.Error(err))
		}
		return Map{}
	}

	m, err := Parse(data, exerciseIDs)
	if err != nil {
		logger.Warn("override map invalid; treating as empty", logging.String("path", path), logging.Error(err))
		return Map{}
	}
	logger.Debug("loaded override map", logging.String("path", path), logging.Int("count", len(m)))
	return m
}

// Merge loads the overrides for one sync run. A configured MapFile wins
// outright; otherwise manual entries are laid over the auto map.
func Merge(src Source, exerciseIDs map[string]struct{}, logger *slog.Logger) Map {
	if strings.TrimSpace(src.MapFile) != "" {
		return Load(src.MapFile, exerciseIDs, logger)
	}
	merged := Load(src.AutoMap, exerciseIDs, logger)
	for publicID, exerciseID := range Load(src.ManualMap, exerciseIDs, logger) {
		merged[publicID] = exerciseID
	}
	return merged
}

// Parse accepts either an array of {exerciseId|id, publicId|cloudinaryId}
// objects or a flat object. In the object form each key is read as an
// exercise id when it names a known exercise (value is then the public id),
// and as a public id otherwise. Later keys win on collisions.
func Parse(data []byte, exerciseIDs map[string]struct{}) (Map, error) {
	data = bytes.TrimSpace(trimUTF8BOM(data))
	out := Map{}
	if len(data) == 0 {
		return out, nil
	}

	switch data[0] {
	case '[':
		var items []any
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode map array: %w", err)
		}
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			exerciseID := firstValue(item, "exerciseId", "id")
			publicID := firstValue(item, "publicId", "cloudinaryId")
			if exerciseID == "" || publicID == "" {
				continue
			}
			out[publicID] = exerciseID
		}
		return out, nil
	case '{':
		pairs, err := decodeOrderedObject(data)
		if err != nil {
			return nil, fmt.Errorf("decode map object: %w", err)
		}
		for _, p := range pairs {
			if p.value == "" {
				continue
			}
			if _, isExercise := exerciseIDs[p.key]; isExercise {
				out[p.value] = p.key
			} else {
				out[p.key] = p.value
			}
		}
		return out, nil
	default:
		return out, nil
	}
}

type pair struct {
	key   string
	value string
}

// decodeOrderedObject walks a flat JSON object keeping key order, which
// decides collisions.
func decodeOrderedObject(data []byte) ([]pair, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	var pairs []pair
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", tok)
		}
		var value any
		if err := decoder.Decode(&value); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{key: key, value: scalarString(value)})
	}
	if _, err := decoder.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return pairs, nil
}

func firstValue(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := scalarString(item[key]); v != "" {
			return v
		}
	}
	return ""
}

// scalarString renders JSON scalars as strings. Falsy values (null, false,
// "", 0) and containers render empty and are skipped by callers.
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return ""
		}
		return val.String()
	case bool:
		if val {
			return strconv.FormatBool(val)
		}
	}
	return ""
}

func trimUTF8BOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// WriteAccepted writes the publicId -> exerciseId object produced by a build.
func WriteAccepted(path string, accepted map[string]string) error {
	if accepted == nil {
		accepted = map[string]string{}
	}
	return fileutil.WriteJSONAtomic(path, accepted)
}

// WriteReview writes the assets awaiting manual adjudication.
func WriteReview(path string, review []imagematch.ReviewEntry) error {
	if review == nil {
		review = []imagematch.ReviewEntry{}
	}
	return fileutil.WriteJSONAtomic(path, review)
}

// WriteTemplate writes {exerciseId: ""} for every id, sorted, as a starting
// point for a manual map.
func WriteTemplate(path string, exerciseIDs []string) (int, error) {
	ids := append([]string(nil), exerciseIDs...)
	sort.Strings(ids)
	template := make(map[string]string, len(ids))
	for _, id := range ids {
		template[id] = ""
	}
	if err := fileutil.WriteJSONAtomic(path, template); err != nil {
		return 0, err
	}
	return len(template), nil
}

// IDSet converts a list of exercise ids into the membership set Parse expects.
func IDSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
