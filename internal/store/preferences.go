package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetPreference fetches the preferences stored for userID.
func (s *Store) GetPreference(ctx context.Context, userID string) (*Preference, error) {
	var (
		p          Preference
		goals      sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT user_id, branch, goals_json, created_at, updated_at FROM preferences WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Branch, &goals, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get preference", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	if err := decodeJSON(goals, &p.Goals); err != nil {
		return nil, fmt.Errorf("decode goals for %s: %w", userID, err)
	}
	if p.Goals == nil {
		p.Goals = map[string]any{}
	}
	p.CreatedAt = parseTime(createdRaw)
	p.UpdatedAt = parseTime(updatedRaw)
	return &p, nil
}

// UpsertPreference sets the branch for userID, creating the row when needed.
// Goals of an existing row are kept.
func (s *Store) UpsertPreference(ctx context.Context, userID, branch string) (*Preference, error) {
	p := Preference{UserID: userID, Branch: branch}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	goals, err := encodeJSON(p.Goals)
	if err != nil {
		return nil, fmt.Errorf("encode goals: %w", err)
	}
	now := formatTime(s.now())
	_, err = s.execWithRetry(ctx,
		`INSERT INTO preferences (user_id, branch, goals_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET branch = excluded.branch, updated_at = excluded.updated_at`,
		p.UserID, p.Branch, goals, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert preference: %w", err)
	}
	return s.GetPreference(ctx, p.UserID)
}
