package imagematch

import "testing"

func entry(id, name, muscle string) PreparedEntry {
	return Prepare(CatalogEntry{ID: id, Name: name, MuscleGroup: muscle})
}

func TestScoreTiers(t *testing.T) {
	pressBanca := entry("press-banca", "Press de banca", "pecho")
	tests := []struct {
		name    string
		variant string
		entry   PreparedEntry
		prefix  string
		want    int
	}{
		{"exact id", "press-banca", pressBanca, "", 5},
		{"exact id ignores bonus", "press-banca", pressBanca, "pecho", 5},
		{"exact name", "press-de-banca", pressBanca, "", 4},
		{"variant contains id", "press-banca-inclinado", pressBanca, "", 3},
		{"id contains variant", "press", pressBanca, "", 3},
		{"name contains variant", "de-banca", entry("pb", "Press de banca", ""), "", 2},
		{"two token overlap", "banca-press-plano", entry("x1", "Press banca", ""), "", 3},
		{"below overlap ratio", "press-militar-sentado-barra", entry("x2", "Press banca", ""), "", 0},
		{"overlap with bonus", "banca-press-plano", entry("x3", "Press banca", "Pecho"), "pecho", 4},
		{"bonus on zero overlap", "remo-bajo", entry("x4", "Aperturas", "pecho"), "pecho", 1},
		{"muscle mismatch", "remo-bajo", entry("x5", "Aperturas", "espalda"), "pecho", 0},
		{"stopwords only", "de-la", entry("x6", "Press banca", "pecho"), "pecho", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.variant, tt.entry, tt.prefix); got != tt.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tt.variant, tt.entry.ID, got, tt.want)
			}
		})
	}
}

func TestScoreUsesIDTokensWhenNameMissing(t *testing.T) {
	e := entry("curl-martillo-alterno", "", "")
	if got := Score("martillo-curl-cuerda", e, ""); got != 3 {
		t.Fatalf("expected token overlap against id tokens, got %d", got)
	}
}

func TestScoreIgnoresEmptyNormalizedForms(t *testing.T) {
	e := entry("!!!", "", "")
	if got := Score("press-banca", e, ""); got != 0 {
		t.Fatalf("empty normalized entry must not match by containment, got %d", got)
	}
}

func TestScoreBoundaryOverlapVersusSubstring(t *testing.T) {
	substring := Score("sentadilla", entry("sentadilla-goblet", "Sentadilla goblet", ""), "")
	overlap := Score("goblet-sentadilla", entry("x", "Sentadilla goblet", ""), "")
	if substring != ScoreContainsID {
		t.Fatalf("expected substring tier %d, got %d", ScoreContainsID, substring)
	}
	if overlap != 3 {
		t.Fatalf("expected two-token overlap to score 3, got %d", overlap)
	}
	exact := Score("sentadilla-goblet", entry("sentadilla-goblet", "Sentadilla goblet", ""), "")
	if exact <= substring || exact <= overlap {
		t.Fatalf("exact id (%d) must dominate substring (%d) and overlap (%d)", exact, substring, overlap)
	}
}
