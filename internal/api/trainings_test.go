package api

import (
	"net/http"
	"testing"

	"gymtrack/internal/store"
)

func trainingPayload(id, date string) map[string]any {
	payload := map[string]any{
		"routineName": "Pecho y espalda",
		"exercises": []map[string]any{
			{
				"exerciseName": "Press banca",
				"sets": []map[string]any{
					{"weightKg": 100, "reps": 5},
					{"weightKg": 60, "reps": 8},
					{"reps": 12},
				},
			},
		},
	}
	if id != "" {
		payload["id"] = id
	}
	if date != "" {
		payload["date"] = date
	}
	return payload
}

func TestCalendarDate(t *testing.T) {
	tests := map[string]string{
		"2024-05-01T22:10:00.000Z": "2024-05-01",
		"2024-05-01":               "2024-05-01",
		" 2024-05-01 ":             "2024-05-01",
		"":                         "",
	}
	for in, want := range tests {
		if got := calendarDate(in); got != want {
			t.Errorf("calendarDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateTrainingNormalizesDateAndVolume(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/trainings", trainingPayload("t-1", "2024-05-01T22:10:00.000Z"))
	expectStatus(t, w, http.StatusCreated)
	got := decode[store.Training](t, w)
	if got.ID != "t-1" {
		t.Fatalf("expected client id, got %q", got.ID)
	}
	if got.Date != "2024-05-01" {
		t.Fatalf("expected normalized date, got %q", got.Date)
	}
	if got.TotalVolume != 980 {
		t.Fatalf("expected volume 980, got %v", got.TotalVolume)
	}
}

func TestCreateTrainingDefaultsDateToToday(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/trainings", trainingPayload("", ""))
	expectStatus(t, w, http.StatusCreated)
	got := decode[store.Training](t, w)
	if got.Date != "2024-06-15" {
		t.Fatalf("expected today's date, got %q", got.Date)
	}
	if got.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestListTrainingsFiltersAndSorts(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, p := range []map[string]any{
		trainingPayload("t-1", "2024-05-01"),
		trainingPayload("t-2", "2024-05-03"),
		trainingPayload("t-3", "2024-05-05"),
	} {
		expectStatus(t, env.do(t, http.MethodPost, "/api/trainings", p), http.StatusCreated)
	}

	w := env.do(t, http.MethodGet, "/api/trainings", nil)
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("unexpected cache control %q", got)
	}
	all := decode[[]store.Training](t, w)
	if len(all) != 3 || all[0].ID != "t-3" || all[2].ID != "t-1" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	w = env.do(t, http.MethodGet, "/api/trainings?from=2024-05-02&to=2024-05-05&meta=true", nil)
	meta := decode[listMeta[store.Training]](t, w)
	if meta.Count != 2 || meta.Limit != trainingsDefaultLimit {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestGetAndUpdateTraining(t *testing.T) {
	env := newTestEnv(t, nil)
	expectStatus(t, env.do(t, http.MethodPost, "/api/trainings", trainingPayload("t-1", "2024-05-01")), http.StatusCreated)

	w := env.do(t, http.MethodGet, "/api/trainings/t-1", nil)
	expectStatus(t, w, http.StatusOK)

	missing := env.do(t, http.MethodGet, "/api/trainings/nope", nil)
	expectStatus(t, missing, http.StatusNotFound)
	expectError(t, missing, "Not found")

	w = env.do(t, http.MethodPut, "/api/trainings/t-1", map[string]any{
		"id":              "ignored",
		"durationSeconds": 3600,
		"exercises": []map[string]any{
			{"exerciseName": "Sentadilla", "sets": []map[string]any{{"weightKg": 80, "reps": 10}}},
		},
	})
	expectStatus(t, w, http.StatusOK)
	got := decode[store.Training](t, w)
	if got.ID != "t-1" || got.Date != "2024-05-01" {
		t.Fatalf("expected id and date kept, got %+v", got)
	}
	if got.TotalVolume != 800 || got.DurationSeconds != 3600 {
		t.Fatalf("unexpected update result %+v", got)
	}

	missing = env.do(t, http.MethodPut, "/api/trainings/nope", map[string]any{"date": "2024-01-01"})
	expectStatus(t, missing, http.StatusNotFound)
	expectError(t, missing, "Not found")

	expectStatus(t, env.do(t, http.MethodDelete, "/api/trainings/t-1", nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/api/trainings/t-1", nil), http.StatusNotFound)
}

func TestCreateTrainingRejectsBadSeriesType(t *testing.T) {
	env := newTestEnv(t, nil)
	payload := trainingPayload("", "2024-05-01")
	payload["exercises"] = []map[string]any{{"exerciseName": "x", "seriesType": "pentaserie"}}
	expectStatus(t, env.do(t, http.MethodPost, "/api/trainings", payload), http.StatusBadRequest)
}
