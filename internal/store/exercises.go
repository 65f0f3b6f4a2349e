package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const exerciseColumns = "id, name, muscle, description, equipment, image, image_public_id, thumb, type, owner_id, branches_json, created_at, updated_at"

func scanExercise(scanner rowScanner) (*Exercise, error) {
	var (
		ex            Exercise
		image         sql.NullString
		imagePublicID sql.NullString
		thumb         sql.NullString
		ownerID       sql.NullString
		branches      sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&ex.ID,
		&ex.Name,
		&ex.Muscle,
		&ex.Description,
		&ex.Equipment,
		&image,
		&imagePublicID,
		&thumb,
		&ex.Type,
		&ownerID,
		&branches,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	ex.Image = image.String
	ex.ImagePublicID = imagePublicID.String
	ex.Thumb = thumb.String
	ex.OwnerID = stringPtr(ownerID)
	ex.CreatedAt = parseTime(createdRaw)
	ex.UpdatedAt = parseTime(updatedRaw)
	if err := decodeJSON(branches, &ex.Branches); err != nil {
		return nil, fmt.Errorf("decode branches for %s: %w", ex.ID, err)
	}
	if ex.Branches == nil {
		ex.Branches = []string{}
	}
	return &ex, nil
}

func emptyAsNull(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// ListExercises returns exercises in insertion order. A non-positive limit
// returns every row from offset.
func (s *Store) ListExercises(ctx context.Context, offset, limit int) ([]Exercise, error) {
	offset, limit = clampPage(offset, limit)
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+exerciseColumns+` FROM exercises ORDER BY rowid LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	out := make([]Exercise, 0)
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		out = append(out, *ex)
	}
	return out, rows.Err()
}

// GetExercise fetches one exercise by id.
func (s *Store) GetExercise(ctx context.Context, id string) (*Exercise, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get exercise", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return ex, nil
}

// CreateExercise inserts ex after applying defaults.
func (s *Store) CreateExercise(ctx context.Context, ex *Exercise) (*Exercise, error) {
	if ex == nil {
		return nil, errors.New("exercise is nil")
	}
	if err := ex.normalize(); err != nil {
		return nil, err
	}
	branches, err := encodeJSON(ex.Branches)
	if err != nil {
		return nil, fmt.Errorf("encode branches: %w", err)
	}
	now := s.now()
	ex.CreatedAt, ex.UpdatedAt = now, now
	_, err = s.execWithRetry(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID,
		ex.Name,
		ex.Muscle,
		ex.Description,
		ex.Equipment,
		emptyAsNull(ex.Image),
		emptyAsNull(ex.ImagePublicID),
		emptyAsNull(ex.Thumb),
		ex.Type,
		nullableString(ex.OwnerID),
		branches,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return nil, conflictOrWrap(err, "insert exercise", ex.ID)
	}
	return s.GetExercise(ctx, ex.ID)
}

// UpdateExercise replaces the stored fields of an existing exercise.
func (s *Store) UpdateExercise(ctx context.Context, ex *Exercise) (*Exercise, error) {
	if ex == nil {
		return nil, errors.New("exercise is nil")
	}
	if err := ex.normalize(); err != nil {
		return nil, err
	}
	branches, err := encodeJSON(ex.Branches)
	if err != nil {
		return nil, fmt.Errorf("encode branches: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE exercises SET name = ?, muscle = ?, description = ?, equipment = ?, image = ?,
            image_public_id = ?, thumb = ?, type = ?, owner_id = ?, branches_json = ?, updated_at = ?
        WHERE id = ?`,
		ex.Name,
		ex.Muscle,
		ex.Description,
		ex.Equipment,
		emptyAsNull(ex.Image),
		emptyAsNull(ex.ImagePublicID),
		emptyAsNull(ex.Thumb),
		ex.Type,
		nullableString(ex.OwnerID),
		branches,
		formatTime(s.now()),
		ex.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update exercise: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("update exercise", ex.ID)
	}
	return s.GetExercise(ctx, ex.ID)
}

// DeleteExercise removes an exercise. Missing ids are not an error.
func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM exercises WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}
	return nil
}
