package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const trainingColumns = "id, date, duration_seconds, total_volume, routine_id, routine_name, branch, owner_id, exercises_json, created_at, updated_at"

// TrainingFilter narrows ListTrainings. Date bounds are inclusive
// YYYY-MM-DD strings; empty fields do not filter.
type TrainingFilter struct {
	From      string
	To        string
	RoutineID string
	Offset    int
	Limit     int
}

func scanTraining(scanner rowScanner) (*Training, error) {
	var (
		t          Training
		routineID  sql.NullString
		branch     sql.NullString
		ownerID    sql.NullString
		exercises  sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&t.ID,
		&t.Date,
		&t.DurationSeconds,
		&t.TotalVolume,
		&routineID,
		&t.RoutineName,
		&branch,
		&ownerID,
		&exercises,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	if err := decodeJSON(exercises, &t.Exercises); err != nil {
		return nil, fmt.Errorf("decode training exercises for %s: %w", t.ID, err)
	}
	if t.Exercises == nil {
		t.Exercises = []TrainingExercise{}
	}
	t.RoutineID = stringPtr(routineID)
	t.Branch = stringPtr(branch)
	t.OwnerID = stringPtr(ownerID)
	t.CreatedAt = parseTime(createdRaw)
	t.UpdatedAt = parseTime(updatedRaw)
	return &t, nil
}

// ListTrainings returns trainings newest date first.
func (s *Store) ListTrainings(ctx context.Context, filter TrainingFilter) ([]Training, error) {
	var (
		where []string
		args  []any
	)
	if filter.From != "" {
		where = append(where, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "date <= ?")
		args = append(args, filter.To)
	}
	if filter.RoutineID != "" {
		where = append(where, "routine_id = ?")
		args = append(args, filter.RoutineID)
	}
	query := `SELECT ` + trainingColumns + ` FROM trainings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	offset, limit := clampPage(filter.Offset, filter.Limit)
	query += " ORDER BY date DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trainings: %w", err)
	}
	defer rows.Close()

	out := make([]Training, 0)
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, fmt.Errorf("scan training: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetTraining fetches one training by id.
func (s *Store) GetTraining(ctx context.Context, id string) (*Training, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+trainingColumns+` FROM trainings WHERE id = ?`, id)
	t, err := scanTraining(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get training", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get training: %w", err)
	}
	return t, nil
}

// CreateTraining inserts t, generating an id when none is supplied. The total
// volume is always recomputed from the sets.
func (s *Store) CreateTraining(ctx context.Context, t *Training) (*Training, error) {
	if t == nil {
		return nil, errors.New("training is nil")
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	if t.ID = strings.TrimSpace(t.ID); t.ID == "" {
		t.ID = uuid.NewString()
	}
	exercises, err := encodeJSON(t.Exercises)
	if err != nil {
		return nil, fmt.Errorf("encode training exercises: %w", err)
	}
	now := formatTime(s.now())
	_, err = s.execWithRetry(ctx,
		`INSERT INTO trainings (`+trainingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Date,
		t.DurationSeconds,
		t.TotalVolume,
		nullableString(t.RoutineID),
		t.RoutineName,
		nullableString(t.Branch),
		nullableString(t.OwnerID),
		exercises,
		now,
		now,
	)
	if err != nil {
		return nil, conflictOrWrap(err, "insert training", t.ID)
	}
	return s.GetTraining(ctx, t.ID)
}

// UpdateTraining replaces the stored fields of an existing training.
func (s *Store) UpdateTraining(ctx context.Context, t *Training) (*Training, error) {
	if t == nil {
		return nil, errors.New("training is nil")
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	exercises, err := encodeJSON(t.Exercises)
	if err != nil {
		return nil, fmt.Errorf("encode training exercises: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE trainings SET date = ?, duration_seconds = ?, total_volume = ?, routine_id = ?, routine_name = ?,
            branch = ?, owner_id = ?, exercises_json = ?, updated_at = ?
        WHERE id = ?`,
		t.Date,
		t.DurationSeconds,
		t.TotalVolume,
		nullableString(t.RoutineID),
		t.RoutineName,
		nullableString(t.Branch),
		nullableString(t.OwnerID),
		exercises,
		formatTime(s.now()),
		t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update training: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("update training", t.ID)
	}
	return s.GetTraining(ctx, t.ID)
}

// DeleteTraining removes a training. Missing ids are not an error.
func (s *Store) DeleteTraining(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM trainings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete training: %w", err)
	}
	return nil
}
