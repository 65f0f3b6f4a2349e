package api

import (
	"net/http"
	"testing"

	"gymtrack/internal/store"
)

func TestRoutineLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/routines", map[string]any{
		"name": "Piernas",
		"exercises": []map[string]any{
			{"exerciseId": "sentadilla", "name": "Sentadilla"},
			{"exerciseId": "prensa", "name": "Prensa", "sets": 4, "isExtra": true},
		},
	})
	expectStatus(t, w, http.StatusCreated)
	created := decode[store.Routine](t, w)
	if created.ID == "" || created.Branch != store.BranchGeneral {
		t.Fatalf("unexpected routine %+v", created)
	}
	if created.Exercises[0].Sets != 3 || created.Exercises[1].Sets != 4 {
		t.Fatalf("unexpected sets %+v", created.Exercises)
	}

	w = env.do(t, http.MethodPost, "/api/routines", map[string]any{"id": "r-fixed", "name": "Torso", "branch": "sopocachi"})
	expectStatus(t, w, http.StatusCreated)
	if got := decode[store.Routine](t, w); got.ID != "r-fixed" {
		t.Fatalf("expected client id, got %q", got.ID)
	}

	invalid := env.do(t, http.MethodPost, "/api/routines", map[string]any{"name": "X", "branch": "centro"})
	expectStatus(t, invalid, http.StatusBadRequest)

	w = env.do(t, http.MethodPut, "/api/routines/"+created.ID, map[string]any{"description": "martes"})
	expectStatus(t, w, http.StatusOK)
	if got := decode[store.Routine](t, w); got.Name != "Piernas" || got.Description != "martes" || len(got.Exercises) != 2 {
		t.Fatalf("unexpected update %+v", got)
	}
	expectStatus(t, env.do(t, http.MethodPut, "/api/routines/nope", map[string]any{"name": "x"}), http.StatusNotFound)

	expectStatus(t, env.do(t, http.MethodDelete, "/api/routines/r-fixed", nil), http.StatusOK)
	list := decode[[]store.Routine](t, env.do(t, http.MethodGet, "/api/routines", nil))
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected routines %+v", list)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/sessions", map[string]any{
		"date":         "2024-05-01",
		"exerciseId":   "remo",
		"exerciseName": "Remo",
		"sets":         []map[string]any{{"reps": 10, "weight": 40}},
		"photoType":    "gym",
	})
	expectStatus(t, w, http.StatusCreated)
	created := decode[store.Session](t, w)
	if created.ID == "" || len(created.Sets) != 1 {
		t.Fatalf("unexpected session %+v", created)
	}

	invalid := env.do(t, http.MethodPost, "/api/sessions", map[string]any{"date": "2024-05-01"})
	expectStatus(t, invalid, http.StatusBadRequest)

	list := decode[[]store.Session](t, env.do(t, http.MethodGet, "/api/sessions", nil))
	if len(list) != 1 {
		t.Fatalf("expected one session, got %d", len(list))
	}
	expectStatus(t, env.do(t, http.MethodDelete, "/api/sessions/"+created.ID, nil), http.StatusOK)
	list = decode[[]store.Session](t, env.do(t, http.MethodGet, "/api/sessions", nil))
	if len(list) != 0 {
		t.Fatalf("expected no sessions, got %d", len(list))
	}
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/preferences", nil)
	expectStatus(t, w, http.StatusOK)
	fallback := decode[map[string]any](t, w)
	if fallback["userId"] != "default" || fallback["branch"] != "general" {
		t.Fatalf("unexpected fallback %v", fallback)
	}

	w = env.do(t, http.MethodPost, "/api/preferences", map[string]any{"userId": "ana", "branch": "miraflores"})
	expectStatus(t, w, http.StatusCreated)
	if got := decode[store.Preference](t, w); got.Branch != store.BranchMiraflores {
		t.Fatalf("unexpected preference %+v", got)
	}

	w = env.do(t, http.MethodGet, "/api/preferences?userId=ana", nil)
	if got := decode[store.Preference](t, w); got.UserID != "ana" || got.Branch != store.BranchMiraflores {
		t.Fatalf("unexpected stored preference %+v", got)
	}

	w = env.do(t, http.MethodPost, "/api/preferences", map[string]any{})
	expectStatus(t, w, http.StatusCreated)
	if got := decode[store.Preference](t, w); got.UserID != "default" || got.Branch != store.BranchGeneral {
		t.Fatalf("unexpected default upsert %+v", got)
	}

	invalid := env.do(t, http.MethodPost, "/api/preferences", map[string]any{"branch": "centro"})
	expectStatus(t, invalid, http.StatusBadRequest)
}
