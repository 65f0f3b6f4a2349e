package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

const maxBulkErrorSamples = 5

// ImageRecord is the slice of an exercise the image jobs read.
type ImageRecord struct {
	ID            string
	Name          string
	Muscle        string
	Image         string
	ImagePublicID string
}

// ImageUpdate assigns an asset to an exercise.
type ImageUpdate struct {
	ExerciseID string
	PublicID   string
	SecureURL  string
}

// BulkResult summarises an unordered bulk write. Matched counts updates whose
// filter selected a row that differed from the new values; Modified counts
// rows actually changed. Failed updates never abort the batch.
type BulkResult struct {
	Matched  int
	Modified int
	Failed   int
	Errors   []string
}

// CatalogEntries returns the fields the matcher needs for every exercise, in
// insertion order.
func (s *Store) CatalogEntries(ctx context.Context) ([]ImageRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, name, muscle, image, image_public_id FROM exercises ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	out := make([]ImageRecord, 0)
	for rows.Next() {
		var (
			rec      ImageRecord
			image    sql.NullString
			publicID sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Muscle, &image, &publicID); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		rec.Image = image.String
		rec.ImagePublicID = publicID.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ApplyImageUpdates writes each update only when the exercise's stored public
// id or image URL differs from the new values.
func (s *Store) ApplyImageUpdates(ctx context.Context, updates []ImageUpdate) (BulkResult, error) {
	ctx = ensureContext(ctx)
	var result BulkResult
	now := formatTime(s.now())
	for _, update := range updates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res, err := s.execWithRetry(ctx,
			`UPDATE exercises SET image = ?, image_public_id = ?, updated_at = ?
            WHERE id = ? AND (image_public_id IS NOT ? OR image IS NOT ?)`,
			update.SecureURL,
			update.PublicID,
			now,
			update.ExerciseID,
			update.PublicID,
			update.SecureURL,
		)
		if err != nil {
			result.Failed++
			if len(result.Errors) < maxBulkErrorSamples {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", update.ExerciseID, err))
			}
			continue
		}
		n, err := res.RowsAffected()
		if err != nil {
			result.Failed++
			continue
		}
		result.Matched += int(n)
		result.Modified += int(n)
	}
	return result, nil
}

// CountMissingImagePublicID counts exercises without an assigned asset.
func (s *Store) CountMissingImagePublicID(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM exercises WHERE image_public_id IS NULL OR image_public_id = ''`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count missing image public id: %w", err)
	}
	return count, nil
}

// ClearImages unsets image and thumb. Without all, only exercises that carry
// a public id are touched. The public id itself is kept. It returns the
// number of rows changed.
func (s *Store) ClearImages(ctx context.Context, all bool) (int, error) {
	query := `UPDATE exercises SET image = NULL, thumb = NULL, updated_at = ?
        WHERE (image IS NOT NULL OR thumb IS NOT NULL)`
	if !all {
		query += ` AND image_public_id IS NOT NULL AND image_public_id != ''`
	}
	res, err := s.execWithRetry(ctx, query, formatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("clear images: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear images rows: %w", err)
	}
	return int(n), nil
}

// ExerciseIDs returns every exercise id sorted ascending.
func (s *Store) ExerciseIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT id FROM exercises`)
	if err != nil {
		return nil, fmt.Errorf("list exercise ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan exercise id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
