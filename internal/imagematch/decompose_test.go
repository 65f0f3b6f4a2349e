package imagematch

import "testing"

func TestExtractIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		folder string
		want   string
	}{
		{"under folder", "gym/exercises/press-banca", "gym/exercises", "press-banca"},
		{"nested under folder", "gym/exercises/pecho/press-banca", "gym/exercises", "pecho/press-banca"},
		{"bare key", "press-banca", "gym/exercises", "press-banca"},
		{"other folder", "uploads/legacy/press-banca", "gym/exercises", "press-banca"},
		{"trailing slash", "uploads/press-banca/", "gym/exercises", "press-banca"},
		{"only slashes", "///", "gym/exercises", ""},
		{"empty", "", "gym/exercises", ""},
		{"folder prefix without slash", "gym/exercisesX/curl", "gym/exercises", "curl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractIdentifier(tt.key, tt.folder); got != tt.want {
				t.Errorf("ExtractIdentifier(%q, %q) = %q, want %q", tt.key, tt.folder, got, tt.want)
			}
		})
	}
}

func TestStripGeneratedSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"press_banca_a1b2c3", "press_banca"},
		{"press_banca_800x600", "press_banca"},
		{"press_banca_800x600_a1b2c3", "press_banca"},
		{"press_banca_A1B2C3", "press_banca"},
		{"press_banca_abcdef", "press_banca_abcdef"},
		{"press_banca_a1b2c3d4e", "press_banca_a1b2c3d4e"},
		{"press_banca_a1b2", "press_banca_a1b2"},
		{"press_banca_80000x600", "press_banca_80000x600"},
		{"press__banca_", "press_banca"},
		{"abc12", ""},
		{"press", "press"},
		{"", ""},
		{"___", "___"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripGeneratedSuffix(tt.in); got != tt.want {
				t.Errorf("StripGeneratedSuffix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDropMuscleGroupPrefix(t *testing.T) {
	vocab := DefaultMuscleGroups()
	tests := []struct {
		in   string
		want string
	}{
		{"pecho_press_banca", "press_banca"},
		{"pecho", "pecho"},
		{"press_banca", "press_banca"},
		{"_pecho_press", "press"},
		{"Pecho_press", "Pecho_press"},
	}
	for _, tt := range tests {
		if got := DropMuscleGroupPrefix(tt.in, vocab); got != tt.want {
			t.Errorf("DropMuscleGroupPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectMuscleGroupPrefix(t *testing.T) {
	vocab := DefaultMuscleGroups()
	tests := []struct {
		in   string
		want string
	}{
		{"pecho_press_banca_mb1c9", "pecho"},
		{"hombro", "hombro"},
		{"press_banca", ""},
		{"_pecho_press", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DetectMuscleGroupPrefix(tt.in, vocab); got != tt.want {
			t.Errorf("DetectMuscleGroupPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVocabularyIgnoresEmptyWords(t *testing.T) {
	v := NewVocabulary("", "core")
	if v.Has("") {
		t.Fatal("empty word should not be part of the vocabulary")
	}
	if !v.Has("core") {
		t.Fatal("expected core in vocabulary")
	}
}
