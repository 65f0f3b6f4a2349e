package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const routineColumns = "id, name, description, branch, exercises_json, owner_id, created_at, updated_at"

func scanRoutine(scanner rowScanner) (*Routine, error) {
	var (
		r          Routine
		exercises  sql.NullString
		ownerID    sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&r.ID, &r.Name, &r.Description, &r.Branch, &exercises, &ownerID, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	if err := decodeJSON(exercises, &r.Exercises); err != nil {
		return nil, fmt.Errorf("decode routine exercises for %s: %w", r.ID, err)
	}
	if r.Exercises == nil {
		r.Exercises = []RoutineExercise{}
	}
	r.OwnerID = stringPtr(ownerID)
	r.CreatedAt = parseTime(createdRaw)
	r.UpdatedAt = parseTime(updatedRaw)
	return &r, nil
}

// ListRoutines returns every routine in insertion order.
func (s *Store) ListRoutines(ctx context.Context) ([]Routine, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+routineColumns+` FROM routines ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	out := make([]Routine, 0)
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRoutine fetches one routine by id.
func (s *Store) GetRoutine(ctx context.Context, id string) (*Routine, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+routineColumns+` FROM routines WHERE id = ?`, id)
	r, err := scanRoutine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get routine", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get routine: %w", err)
	}
	return r, nil
}

// CreateRoutine inserts r, generating an id when none is supplied.
func (s *Store) CreateRoutine(ctx context.Context, r *Routine) (*Routine, error) {
	if r == nil {
		return nil, errors.New("routine is nil")
	}
	if err := r.normalize(); err != nil {
		return nil, err
	}
	if r.ID = strings.TrimSpace(r.ID); r.ID == "" {
		r.ID = uuid.NewString()
	}
	exercises, err := encodeJSON(r.Exercises)
	if err != nil {
		return nil, fmt.Errorf("encode routine exercises: %w", err)
	}
	now := formatTime(s.now())
	_, err = s.execWithRetry(ctx,
		`INSERT INTO routines (`+routineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Description, r.Branch, exercises, nullableString(r.OwnerID), now, now,
	)
	if err != nil {
		return nil, conflictOrWrap(err, "insert routine", r.ID)
	}
	return s.GetRoutine(ctx, r.ID)
}

// UpdateRoutine replaces the stored fields of an existing routine.
func (s *Store) UpdateRoutine(ctx context.Context, r *Routine) (*Routine, error) {
	if r == nil {
		return nil, errors.New("routine is nil")
	}
	if err := r.normalize(); err != nil {
		return nil, err
	}
	exercises, err := encodeJSON(r.Exercises)
	if err != nil {
		return nil, fmt.Errorf("encode routine exercises: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE routines SET name = ?, description = ?, branch = ?, exercises_json = ?, owner_id = ?, updated_at = ?
        WHERE id = ?`,
		r.Name, r.Description, r.Branch, exercises, nullableString(r.OwnerID), formatTime(s.now()), r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("update routine", r.ID)
	}
	return s.GetRoutine(ctx, r.ID)
}

// DeleteRoutine removes a routine. Missing ids are not an error.
func (s *Store) DeleteRoutine(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM routines WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	return nil
}
