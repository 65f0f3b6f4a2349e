package imagemap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gymtrack/internal/imagematch"
	"gymtrack/internal/logging"
)

func ids(values ...string) map[string]struct{} {
	return IDSet(values)
}

func TestParseArrayShape(t *testing.T) {
	data := []byte(`[
		{"exerciseId": "press-banca", "publicId": "gym/exercises/img_001"},
		{"id": "sentadilla", "cloudinaryId": "gym/exercises/img_002"},
		{"exerciseId": "", "publicId": "gym/exercises/img_003"},
		{"exerciseId": "curl"},
		null,
		42
	]`)
	m, err := Parse(data, ids())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %v", m)
	}
	if m["gym/exercises/img_001"] != "press-banca" || m["gym/exercises/img_002"] != "sentadilla" {
		t.Fatalf("unexpected map %v", m)
	}
}

func TestParseObjectShapeDisambiguatesByCatalog(t *testing.T) {
	data := []byte("\xEF\xBB\xBF" + `{
		"press-banca": "gym/exercises/img_001",
		"gym/exercises/img_002": "sentadilla",
		"curl": "",
		"remo": null,
		"gym/exercises/img_003": 7
	}`)
	m, err := Parse(data, ids("press-banca", "sentadilla", "curl"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Map{
		"gym/exercises/img_001": "press-banca",
		"gym/exercises/img_002": "sentadilla",
		"gym/exercises/img_003": "7",
	}
	if len(m) != len(want) {
		t.Fatalf("expected %v, got %v", want, m)
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("expected %s -> %s, got %v", k, v, m)
		}
	}
}

func TestParseObjectLaterKeysWin(t *testing.T) {
	data := []byte(`{"press-banca": "asset-1", "asset-1": "press-militar"}`)
	m, err := Parse(data, ids("press-banca", "press-militar"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m["asset-1"] != "press-militar" {
		t.Fatalf("expected later key to win, got %v", m)
	}
}

func TestParseScalarDocumentIsEmpty(t *testing.T) {
	m, err := Parse([]byte(`"just a string"`), ids())
	if err != nil || len(m) != 0 {
		t.Fatalf("expected empty map, got %v err=%v", m, err)
	}
}

func TestLoadTreatsBadFilesAsEmpty(t *testing.T) {
	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"press-banca": `), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := logging.NewNop()

	if m := Load(invalid, ids(), logger); len(m) != 0 {
		t.Fatalf("expected empty map for invalid file, got %v", m)
	}
	if m := Load(filepath.Join(dir, "missing.json"), ids(), logger); len(m) != 0 {
		t.Fatalf("expected empty map for missing file, got %v", m)
	}
	if m := Load("", ids(), logger); m == nil || len(m) != 0 {
		t.Fatalf("expected empty non-nil map for empty path, got %v", m)
	}
	if m := Load(dir, ids(), logger); len(m) != 0 {
		t.Fatalf("expected empty map for directory path, got %v", m)
	}
}

func TestMergeManualWinsUnlessMapFileSet(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	auto := write("auto.json", `{"asset-1": "press-banca", "asset-2": "sentadilla"}`)
	manual := write("manual.json", `{"asset-2": "curl", "asset-3": "remo"}`)
	single := write("single.json", `[{"exerciseId": "remo", "publicId": "asset-9"}]`)
	known := ids("press-banca", "sentadilla", "curl", "remo")

	merged := Merge(Source{AutoMap: auto, ManualMap: manual}, known, nil)
	if merged["asset-1"] != "press-banca" || merged["asset-2"] != "curl" || merged["asset-3"] != "remo" {
		t.Fatalf("unexpected merged map %v", merged)
	}

	only := Merge(Source{MapFile: single, AutoMap: auto, ManualMap: manual}, known, nil)
	if len(only) != 1 || only["asset-9"] != "remo" {
		t.Fatalf("expected map file to win outright, got %v", only)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	autoPath := filepath.Join(dir, "auto.json")
	reviewPath := filepath.Join(dir, "review.json")
	templatePath := filepath.Join(dir, "template.json")

	if err := WriteAccepted(autoPath, nil); err != nil {
		t.Fatalf("WriteAccepted: %v", err)
	}
	if err := WriteReview(reviewPath, []imagematch.ReviewEntry{{PublicID: "a", Suggestions: []imagematch.Candidate{{ID: "x", Score: 3, Name: "X", MuscleGroup: "core"}}}}); err != nil {
		t.Fatalf("WriteReview: %v", err)
	}
	n, err := WriteTemplate(templatePath, []string{"b", "a", "a"})
	if err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 template entries, got %d", n)
	}

	data, _ := os.ReadFile(autoPath)
	if string(data) != "{}\n" {
		t.Fatalf("expected empty object, got %q", data)
	}

	var review []map[string]any
	data, _ = os.ReadFile(reviewPath)
	if err := json.Unmarshal(data, &review); err != nil {
		t.Fatalf("decode review: %v", err)
	}
	suggestion := review[0]["suggestions"].([]any)[0].(map[string]any)
	if review[0]["publicId"] != "a" || suggestion["muscle"] != "core" || suggestion["score"].(float64) != 3 {
		t.Fatalf("unexpected review json %v", review)
	}

	data, _ = os.ReadFile(templatePath)
	if string(data) != "{\n  \"a\": \"\",\n  \"b\": \"\"\n}\n" {
		t.Fatalf("unexpected template %q", data)
	}

	reloaded := Load(templatePath, ids("a", "b"), nil)
	if len(reloaded) != 0 {
		t.Fatalf("blank template must not produce overrides, got %v", reloaded)
	}
}
