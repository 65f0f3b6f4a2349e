package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const sessionColumns = "id, date, training_id, exercise_id, exercise_name, routine_id, routine_name, sets_json, training_duration_seconds, exercise_duration_seconds, photo_url, photo_type, owner_id, created_at, updated_at"

func scanSession(scanner rowScanner) (*Session, error) {
	var (
		s          Session
		trainingID sql.NullString
		routineID  sql.NullString
		sets       sql.NullString
		ownerID    sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&s.ID,
		&s.Date,
		&trainingID,
		&s.ExerciseID,
		&s.ExerciseName,
		&routineID,
		&s.RoutineName,
		&sets,
		&s.TrainingDurationSeconds,
		&s.ExerciseDurationSeconds,
		&s.PhotoURL,
		&s.PhotoType,
		&ownerID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	if err := decodeJSON(sets, &s.Sets); err != nil {
		return nil, fmt.Errorf("decode session sets for %s: %w", s.ID, err)
	}
	if s.Sets == nil {
		s.Sets = []SessionSet{}
	}
	s.TrainingID = stringPtr(trainingID)
	s.RoutineID = stringPtr(routineID)
	s.OwnerID = stringPtr(ownerID)
	s.CreatedAt = parseTime(createdRaw)
	s.UpdatedAt = parseTime(updatedRaw)
	return &s, nil
}

// ListSessions returns every session in insertion order.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+sessionColumns+` FROM sessions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// GetSession fetches one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// CreateSession inserts a session under a fresh id.
func (s *Store) CreateSession(ctx context.Context, sess *Session) (*Session, error) {
	if sess == nil {
		return nil, errors.New("session is nil")
	}
	if err := sess.normalize(); err != nil {
		return nil, err
	}
	sess.ID = uuid.NewString()
	sets, err := encodeJSON(sess.Sets)
	if err != nil {
		return nil, fmt.Errorf("encode session sets: %w", err)
	}
	now := formatTime(s.now())
	_, err = s.execWithRetry(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.Date,
		nullableString(sess.TrainingID),
		sess.ExerciseID,
		sess.ExerciseName,
		nullableString(sess.RoutineID),
		sess.RoutineName,
		sets,
		sess.TrainingDurationSeconds,
		sess.ExerciseDurationSeconds,
		sess.PhotoURL,
		sess.PhotoType,
		nullableString(sess.OwnerID),
		now,
		now,
	)
	if err != nil {
		return nil, conflictOrWrap(err, "insert session", sess.ID)
	}
	return s.GetSession(ctx, sess.ID)
}

// DeleteSession removes a session. Missing ids are not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
