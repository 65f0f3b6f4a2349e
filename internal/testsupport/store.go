package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"gymtrack/internal/config"
	"gymtrack/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedExercise inserts an exercise with the given id, name and muscle group.
func SeedExercise(t testing.TB, st *store.Store, id, name, muscle string) *store.Exercise {
	t.Helper()

	ex, err := st.CreateExercise(context.Background(), &store.Exercise{
		ID:     id,
		Name:   name,
		Muscle: muscle,
		Type:   store.ExerciseTypeSystem,
	})
	if err != nil {
		t.Fatalf("store.CreateExercise(%s): %v", id, err)
	}
	return ex
}

// FailImageWrites installs a trigger that aborts every image change on the
// exercise id, so write-back failures can be exercised against a real
// database. The trigger is added through a separate connection to the same
// file.
func FailImageWrites(t testing.TB, st *store.Store, exerciseID string) {
	t.Helper()

	db, err := sql.Open("sqlite", st.Path())
	if err != nil {
		t.Fatalf("open %s: %v", st.Path(), err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)

	stmt := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS "fail_image_%s" BEFORE UPDATE OF image, image_public_id ON exercises
        WHEN OLD.id = '%s'
        BEGIN SELECT RAISE(ABORT, 'image writes disabled for %s'); END`,
		exerciseID, exerciseID, exerciseID)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("create trigger for %s: %v", exerciseID, err)
	}
}
