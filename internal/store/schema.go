package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

// schemaSQL creates every collection table plus the schema_version row.
//
//go:embed schema.sql
var schemaSQL string

// schemaVersion must be bumped whenever schema.sql changes shape. There are
// no migrations: an older file is rejected and the operator rebuilds it.
const schemaVersion = 1

// ErrSchemaMismatch is returned by Open when the database file was created by
// a different gymtrack schema.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the collections in a fresh file or checks the recorded
// version of an existing one.
func (s *Store) initSchema(ctx context.Context) error {
	version, found, err := s.recordedVersion(ctx)
	if err != nil {
		return err
	}
	if !found {
		return s.createSchema(ctx)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: %s is at version %d, gymtrack expects %d; export the collections and remove the file",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
	return nil
}

// recordedVersion reads schema_version. found is false for a database that
// has never been initialised.
func (s *Store) recordedVersion(ctx context.Context) (version int, found bool, err error) {
	var tables int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&tables); err != nil {
		return 0, false, fmt.Errorf("inspect sqlite_master: %w", err)
	}
	if tables == 0 {
		return 0, false, nil
	}
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		return 0, false, fmt.Errorf("read schema_version: %w", err)
	}
	return version, true, nil
}

// createSchema applies schema.sql and stamps the version in one transaction,
// so a crash never leaves half-created collections behind.
func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema.sql: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}
