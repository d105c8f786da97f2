package scan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"metascraper/internal/media"
	"metascraper/internal/services"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in      string
		title   string
		year    int
		kind    media.Kind
		season  int
		episode int
	}{
		{"The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv", "The Matrix", 1999, media.KindAuto, 0, 0},
		{"雌吹 (2024).S01E02.mp4", "雌吹", 2024, media.KindTV, 1, 2},
		{"夫妇交欢～回不去的夜晚～ (2023)", "夫妇交欢～回不去的夜晚～", 2023, media.KindAuto, 0, 0},
		{"[Group] the office S03E05 [720p].mkv", "The Office", 0, media.KindTV, 3, 5},
		{"Blade Runner 2049", "Blade Runner 2049", 0, media.KindAuto, 0, 0},
		{"breaking_bad_season_2", "Breaking Bad", 0, media.KindTV, 2, 0},
		{"1917 (2019)", "1917", 2019, media.KindAuto, 0, 0},
		{"Oppenheimer.2023.mkv", "Oppenheimer", 2023, media.KindAuto, 0, 0},
		{"Dune Part Two 2024 2160p WEB-DL", "Dune Part Two", 2024, media.KindAuto, 0, 0},
		{"Show Name S2", "Show Name", 0, media.KindTV, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseName(tt.in)
			want := Name{Title: tt.title, Year: tt.year, Kind: tt.kind, Season: tt.season, Episode: tt.episode}
			if got != want {
				t.Fatalf("ParseName(%q) = %+v, want %+v", tt.in, got, want)
			}
		})
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Oppenheimer (2023)", "Oppenheimer.2023.1080p.mkv"))
	if err := os.MkdirAll(filepath.Join(root, "Some Show", "Season 01"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(root, "movies", "Heat.1995.mkv"))
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(root, ".hidden", "a.mkv"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "show.name.S01E01.mkv"))
	touch(t, filepath.Join(root, "show.name.S01E02.2019.mkv"))

	items, err := Dir(root, Options{}, nil)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %+v", items)
	}

	movie := items[0]
	if movie.Name.Title != "Oppenheimer" || movie.Name.Year != 2023 || movie.Name.Kind != media.KindAuto {
		t.Fatalf("movie item = %+v", movie.Name)
	}
	if movie.TargetDir != "" {
		t.Fatalf("target dir set outside in-place mode: %q", movie.TargetDir)
	}
	if items[1].Name.Title != "Some Show" || items[1].Name.Kind != media.KindTV {
		t.Fatalf("series folder = %+v", items[1].Name)
	}
	loose := items[2]
	if loose.Name.Title != "Show Name" || loose.Name.Kind != media.KindTV || len(loose.Files) != 2 {
		t.Fatalf("loose group = %+v", loose)
	}
	if loose.Name.Year != 2019 {
		t.Fatalf("year from second file not merged: %d", loose.Name.Year)
	}

	req := movie.Request(true)
	if req.Query != "Oppenheimer" || req.YearHint != 2023 || !req.AidedSearch || req.Kind != media.KindAuto {
		t.Fatalf("request = %+v", req)
	}
}

func TestDirInPlace(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Heat (1995)")
	touch(t, filepath.Join(dir, "Heat.mkv"))

	items, err := Dir(dir, Options{InPlace: true, Kind: media.KindMovie}, nil)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	req := items[0].Request(false)
	if req.TargetDir != dir || req.Query != "Heat" || req.Kind != media.KindMovie {
		t.Fatalf("request = %+v", req)
	}
}

func TestDirErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := Dir(filepath.Join(root, "missing"), Options{}, nil); !errors.Is(err, services.ErrInput) {
		t.Fatalf("missing dir: %v", err)
	}
	file := filepath.Join(root, "file.mkv")
	touch(t, file)
	if _, err := Dir(file, Options{}, nil); !errors.Is(err, services.ErrInput) {
		t.Fatalf("file as dir: %v", err)
	}
	if _, err := Dir(t.TempDir(), Options{InPlace: true}, nil); !errors.Is(err, services.ErrInput) {
		t.Fatalf("empty in-place dir: %v", err)
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirUseLocalNFO(t *testing.T) {
	root := t.TempDir()
	show := filepath.Join(root, "权力的游戏")
	touch(t, filepath.Join(show, "Season 01", "S01E01.mkv"))
	writeFile(t, filepath.Join(show, "tvshow.nfo"), `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>
<tvshow>
  <title>权力的游戏</title>
  <uniqueid type="imdb">tt0944947</uniqueid>
  <uniqueid type="tmdb" default="true">1399</uniqueid>
</tvshow>`)
	writeFile(t, filepath.Join(show, "Season 01", "S01E01.nfo"), `<episodedetails><uniqueid type="tmdb">63056</uniqueid></episodedetails>`)

	movie := filepath.Join(root, "Heat (1995)")
	touch(t, filepath.Join(movie, "Heat.mkv"))
	writeFile(t, filepath.Join(movie, "Heat (1995).nfo"), `<movie><title>Heat</title><tmdbid>949</tmdbid></movie>`)

	plain := filepath.Join(root, "Oppenheimer (2023)")
	touch(t, filepath.Join(plain, "Oppenheimer.mkv"))
	writeFile(t, filepath.Join(plain, "broken.nfo"), `<movie><uniqueid type="tmdb">`)

	items, err := Dir(root, Options{UseLocalNFO: true}, nil)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %+v", items)
	}
	want := map[string]media.Request{
		"Heat":        {Query: "Heat", ExternalID: "949", Kind: media.KindMovie, YearHint: 1995},
		"Oppenheimer": {Query: "Oppenheimer", Kind: media.KindAuto, YearHint: 2023},
		"权力的游戏":       {Query: "权力的游戏", ExternalID: "1399", Kind: media.KindTV},
	}
	for _, it := range items {
		got := it.Request(false)
		if got != want[it.Name.Title] {
			t.Fatalf("request for %q = %+v, want %+v", it.Name.Title, got, want[it.Name.Title])
		}
	}

	items, err = Dir(root, Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.Local != nil || it.Request(false).ExternalID != "" {
			t.Fatalf("local id used without the option: %+v", it)
		}
	}
}

func TestLocalIDPrefersShowDescriptor(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.nfo"), `<movie><uniqueid type="tmdb">1</uniqueid></movie>`)
	writeFile(t, filepath.Join(dir, "tvshow.nfo"), `<tvshow><uniqueid type="tmdb">2</uniqueid></tvshow>`)

	ref, found, err := LocalID(dir)
	if err != nil || !found {
		t.Fatalf("LocalID = %+v, %v, %v", ref, found, err)
	}
	if ref.TMDBID != "2" || ref.Kind != media.KindTV || filepath.Base(ref.Path) != "tvshow.nfo" {
		t.Fatalf("ref = %+v", ref)
	}

	empty := t.TempDir()
	writeFile(t, filepath.Join(empty, "a.nfo"), `<movie><uniqueid type="imdb">tt1</uniqueid><tmdbid>abc</tmdbid></movie>`)
	if _, found, err := LocalID(empty); found || err != nil {
		t.Fatalf("expected no id and no error, got found=%v err=%v", found, err)
	}
}
