package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const photoColumns = "id, date, label, url, type, session_id, owner_id, public_id, created_at, updated_at"

func scanPhoto(scanner rowScanner) (*Photo, error) {
	var (
		p          Photo
		sessionID  sql.NullString
		ownerID    sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&p.ID, &p.Date, &p.Label, &p.URL, &p.Type, &sessionID, &ownerID, &p.PublicID, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	p.SessionID = stringPtr(sessionID)
	p.OwnerID = stringPtr(ownerID)
	p.CreatedAt = parseTime(createdRaw)
	p.UpdatedAt = parseTime(updatedRaw)
	return &p, nil
}

// ListPhotos returns photos in insertion order, optionally restricted to one type.
func (s *Store) ListPhotos(ctx context.Context, photoType string) ([]Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos`
	var args []any
	if photoType != "" {
		query += ` WHERE type = ?`
		args = append(args, photoType)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	out := make([]Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetPhoto fetches one photo by id.
func (s *Store) GetPhoto(ctx context.Context, id string) (*Photo, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get photo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

// CreatePhoto inserts a photo under a fresh id.
func (s *Store) CreatePhoto(ctx context.Context, p *Photo) (*Photo, error) {
	if p == nil {
		return nil, errors.New("photo is nil")
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	now := formatTime(s.now())
	_, err := s.execWithRetry(ctx,
		`INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Date, p.Label, p.URL, p.Type, nullableString(p.SessionID), nullableString(p.OwnerID), p.PublicID, now, now,
	)
	if err != nil {
		return nil, conflictOrWrap(err, "insert photo", p.ID)
	}
	return s.GetPhoto(ctx, p.ID)
}

// UpdatePhoto replaces the stored fields of an existing photo.
func (s *Store) UpdatePhoto(ctx context.Context, p *Photo) (*Photo, error) {
	if p == nil {
		return nil, errors.New("photo is nil")
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE photos SET date = ?, label = ?, url = ?, type = ?, session_id = ?, owner_id = ?, public_id = ?, updated_at = ?
        WHERE id = ?`,
		p.Date, p.Label, p.URL, p.Type, nullableString(p.SessionID), nullableString(p.OwnerID), p.PublicID, formatTime(s.now()), p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("update photo", p.ID)
	}
	return s.GetPhoto(ctx, p.ID)
}

// DeletePhoto removes a photo. Missing ids are not an error.
func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM photos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}
