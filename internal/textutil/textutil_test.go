package textutil

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Oppenheimer ", "oppenheimer"},
		{"Amélie", "amelie"},
		{"Fast & Furious", "fast and furious"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"WALL·E", "wall e"},
		{"奥本海默", "奥本海默"},
		{"...", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("Oppenheimer", "oppenheimer"); got != 1 {
		t.Fatalf("identical after fold = %v", got)
	}
	if got := Similarity("", "x"); got != 0 {
		t.Fatalf("empty input = %v", got)
	}
	got := Similarity("kitten", "sitting")
	want := 1 - 3.0/7.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Similarity(kitten, sitting) = %v, want %v", got, want)
	}
	if a, b := Similarity("The Matrix", "Matrix"), Similarity("The Matrix", "Mask"); a <= b {
		t.Fatalf("expected closer title to score higher: %v <= %v", a, b)
	}
}

func TestSameName(t *testing.T) {
	if !SameName("Robert Downey Jr.", "robert downey jr") {
		t.Fatal("expected punctuation-insensitive match")
	}
	if SameName("", "") {
		t.Fatal("empty names should not match")
	}
	if SameName("Emily Blunt", "Emily Watson") {
		t.Fatal("different names matched")
	}
}

func TestContainsHan(t *testing.T) {
	if !ContainsHan("奥本海默 Oppenheimer") {
		t.Fatal("expected Han detection")
	}
	if ContainsHan("オッペンハイマー") {
		t.Fatal("katakana is not Han")
	}
	if ContainsHan("Oppenheimer") {
		t.Fatal("latin text is not Han")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mission: Impossible", "Mission- Impossible"},
		{"What If...?", "What If"},
		{"AC/DC  Live", "AC-DC Live"},
		{"  <Tab> Name\x00 ", "Tab Name"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestActorFileName(t *testing.T) {
	if got := ActorFileName("Cillian Murphy"); got != "Cillian_Murphy" {
		t.Fatalf("ActorFileName = %q", got)
	}
	if got := ActorFileName("  "); got != "" {
		t.Fatalf("blank name = %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Season 01/Extras"); got != "season_01_extras" {
		t.Fatalf("SanitizeToken = %q", got)
	}
	if got := SanitizeToken("***"); got != "unknown" {
		t.Fatalf("SanitizeToken = %q", got)
	}
}
