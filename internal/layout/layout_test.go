package layout

import (
	"path/filepath"
	"testing"
)

func TestRootAndDescriptors(t *testing.T) {
	if got, want := Root("/out", "Oppenheimer", 2023), filepath.Join("/out", "Oppenheimer (2023)"); got != want {
		t.Fatalf("Root = %q, want %q", got, want)
	}
	if got := MovieDescriptor("Oppenheimer", 2023); got != "Oppenheimer (2023).nfo" {
		t.Fatalf("MovieDescriptor = %q", got)
	}
	if got := FolderName("Batman: The Long / Short", 0); got != "Batman- The Long - Short" {
		t.Fatalf("FolderName = %q", got)
	}
	if got := FolderName("???", 2020); got != "Untitled (2020)" {
		t.Fatalf("FolderName = %q", got)
	}
}

func TestEpisodeNames(t *testing.T) {
	tests := []struct {
		name    string
		season  int
		episode int
		title   string
		nfo     string
		thumb   string
	}{
		{"plain", 1, 2, "Servants of Two Masters", "Season 01/Shōgun - S01E02 - Servants of Two Masters.nfo", "Season 01/Shōgun - S01E02 - Servants of Two Masters-thumb.jpg"},
		{"alternatives", 1, 10, "A Dream of a Dream / 夢の夢", "Season 01/Shōgun - S01E10 - A Dream of a Dream.nfo", "Season 01/Shōgun - S01E10 - A Dream of a Dream-thumb.jpg"},
		{"untitled", 2, 1, "", "Season 02/Shōgun - S02E01.nfo", "Season 02/Shōgun - S02E01-thumb.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EpisodeDescriptor("Shōgun", tt.season, tt.episode, tt.title); got != tt.nfo {
				t.Fatalf("EpisodeDescriptor = %q, want %q", got, tt.nfo)
			}
			if got := EpisodeThumb("Shōgun", tt.season, tt.episode, tt.title); got != tt.thumb {
				t.Fatalf("EpisodeThumb = %q, want %q", got, tt.thumb)
			}
		})
	}
}

func TestArtworkNames(t *testing.T) {
	if Backdrop(2) != "images/backdrop2.jpg" {
		t.Fatalf("Backdrop = %q", Backdrop(2))
	}
	if Still(3) != "images/stills/03.jpg" {
		t.Fatalf("Still = %q", Still(3))
	}
	if got := Actor("Cillian Murphy"); got != "actors/Cillian_Murphy.jpg" {
		t.Fatalf("Actor = %q", got)
	}
	if Actor("  ") != "" {
		t.Fatal("blank actor name should have no path")
	}
	if got, want := Abs("/r", "images/poster.jpg"), filepath.Join("/r", "images", "poster.jpg"); got != want {
		t.Fatalf("Abs = %q, want %q", got, want)
	}
}
