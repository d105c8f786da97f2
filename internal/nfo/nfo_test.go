package nfo

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"metascraper/internal/layout"
	"metascraper/internal/media"
	"metascraper/internal/services"
)

type stubGenerator struct {
	out   string
	err   error
	calls int
}

func (s *stubGenerator) Complete(context.Context, string, string) (string, error) {
	s.calls++
	return s.out, s.err
}

func movieRecord() *media.Record {
	rec := media.NewRecord(media.KindMovie)
	rec.Identifiers[media.SourceTMDB] = "872585"
	rec.Identifiers[media.SourceIMDb] = "tt15398776"
	rec.Titles[media.LocaleEnUS] = "Oppenheimer"
	rec.Titles[media.LocaleZhCN] = "奥本海默"
	rec.Overview[media.LocaleEnUS] = "The story of J. Robert Oppenheimer."
	rec.OriginalTitle = "Oppenheimer"
	rec.ReleaseDate = "2023-07-19"
	rec.Year = 2023
	rec.Runtime = 181
	rec.Genres = []string{"Drama", "History"}
	rec.Keywords = []string{"atomic bomb", "biography"}
	rec.LocalizedKeywords["atomic bomb"] = media.LocalizedText{media.LocaleZhCN: "原子弹"}
	rec.Cast = []media.Person{
		{Name: "Cillian Murphy", Role: "J. Robert Oppenheimer", Variants: media.LocalizedText{media.LocaleZhCN: "基里安·墨菲", media.LocaleEnUS: "Cillian Murphy"}},
		{Name: "Emily Blunt", Role: "Kitty Oppenheimer"},
	}
	rec.Crew = []media.CrewMember{{Name: "Christopher Nolan", Job: media.JobDirector}, {Name: "Christopher Nolan", Job: media.JobWriter}}
	rec.Ratings["tmdb"] = media.Rating{Score: 8.1, Max: 10, Votes: 9000}
	rec.Ratings[media.RatingIMDb] = media.Rating{Score: 8.3, Max: 10, Votes: 800000}
	rec.Artwork[media.ArtworkPoster] = []media.ArtworkAsset{{Category: media.ArtworkPoster, TargetPath: layout.Poster, Status: media.ArtworkFetched}}
	rec.Artwork[media.ArtworkFanart] = []media.ArtworkAsset{{Category: media.ArtworkFanart, TargetPath: layout.Fanart, Status: media.ArtworkFailed}}
	rec.Artwork[media.ArtworkActor] = []media.ArtworkAsset{{Category: media.ArtworkActor, TargetPath: "actors/Cillian_Murphy.jpg", Status: media.ArtworkFetched}}
	return rec
}

func TestMapMovie(t *testing.T) {
	rec := movieRecord()
	doc, warnings, err := Map(context.Background(), rec, Options{}, nil)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	m := doc.Movie
	if m == nil || doc.Show != nil {
		t.Fatal("expected a movie document")
	}
	if doc.Path != "奥本海默 (2023).nfo" {
		t.Fatalf("path = %q", doc.Path)
	}
	if m.Title != "奥本海默" || m.OriginalTitle != "Oppenheimer" {
		t.Fatalf("titles = %q / %q", m.Title, m.OriginalTitle)
	}
	if len(m.UniqueIDs) != 2 || m.UniqueIDs[0].Type != "tmdb" || !m.UniqueIDs[0].Default {
		t.Fatalf("uniqueids = %+v", m.UniqueIDs)
	}
	if m.Ratings == nil || m.Ratings.Entries[0].Name != "themoviedb" || m.Ratings.Entries[1].Name != "imdb" {
		t.Fatalf("ratings = %+v", m.Ratings)
	}
	if m.Rating != 8.1 || m.Votes != 9000 {
		t.Fatalf("legacy rating = %v/%d", m.Rating, m.Votes)
	}
	if got := m.Actors[0]; got.Name != "基里安·墨菲" || got.OriginalName != "Cillian Murphy" || got.Thumb != "actors/Cillian_Murphy.jpg" {
		t.Fatalf("actor[0] = %+v", got)
	}
	if m.Actors[1].Thumb != "" {
		t.Fatal("actor without fetched thumb must not reference one")
	}
	if len(m.Thumbs) != 1 || m.Thumbs[0].Path != layout.Poster {
		t.Fatalf("thumbs = %+v", m.Thumbs)
	}
	if m.Fanart != nil {
		t.Fatal("failed fanart must not be referenced")
	}
	if strings.Join(m.Tags, ",") != "原子弹,biography" {
		t.Fatalf("tags = %v", m.Tags)
	}
	if len(m.Directors) != 1 || len(m.Credits) != 1 {
		t.Fatalf("crew = %v / %v", m.Directors, m.Credits)
	}

	m.Genres[0] = "changed"
	if rec.Genres[0] != "Drama" {
		t.Fatal("document shares genre storage with the record")
	}
}

func TestMapTranslatedGenres(t *testing.T) {
	rec := movieRecord()
	rec.LocalizedGenres["Drama"] = media.LocalizedText{media.LocaleZhCN: "剧情", media.LocaleEnUS: "Drama"}
	doc, _, err := Map(context.Background(), rec, Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Movie.Genres; len(got) != 2 || got[0] != "剧情" || got[1] != "History" {
		t.Fatalf("genres = %v", got)
	}
}

func TestMapTaglineSynthesis(t *testing.T) {
	rec := movieRecord()
	gen := &stubGenerator{out: "“改变世界的人”\n"}
	doc, _, err := Map(context.Background(), rec, Options{SynthesizeTagline: true}, gen)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Movie.Tagline != "改变世界的人" || gen.calls != 1 {
		t.Fatalf("tagline = %q after %d calls", doc.Movie.Tagline, gen.calls)
	}

	failing := &stubGenerator{err: errors.New("offline")}
	doc, warnings, err := Map(context.Background(), rec, Options{SynthesizeTagline: true}, failing)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Movie.Tagline != "" || len(warnings) != 1 {
		t.Fatalf("fallback tagline = %q, warnings %v", doc.Movie.Tagline, warnings)
	}

	rec.Taglines[media.LocaleEnUS] = "The world forever changes."
	unused := &stubGenerator{out: "x"}
	doc, _, _ = Map(context.Background(), rec, Options{SynthesizeTagline: true}, unused)
	if doc.Movie.Tagline != "The world forever changes." || unused.calls != 0 {
		t.Fatalf("existing tagline should win, got %q", doc.Movie.Tagline)
	}
}

func seriesRecord() *media.Record {
	rec := media.NewRecord(media.KindTV)
	rec.Identifiers[media.SourceTMDB] = "77560"
	rec.Titles[media.LocaleEnUS] = "Shōgun"
	rec.Year = 2024
	rec.ReleaseDate = "2024-02-27"
	rec.Status = "Returning Series"
	rec.Networks = []string{"FX"}
	rec.Cast = []media.Person{{Name: "Hiroyuki Sanada", Role: "Yoshii Toranaga"}}
	rec.Seasons = []media.Season{{Number: 1, Episodes: []media.Episode{
		{Number: 1, Title: media.LocalizedText{media.LocaleEnUS: "Anjin"}, AirDate: "2024-02-27", Runtime: 70},
		{Number: 2, AirDate: "2024-02-27"},
	}}}
	thumb := layout.EpisodeThumb("Shōgun", 1, 1, "Anjin")
	rec.Artwork[media.ArtworkStill] = []media.ArtworkAsset{{Category: media.ArtworkStill, TargetPath: thumb, Status: media.ArtworkFetched}}
	rec.Artwork[media.ArtworkActor] = []media.ArtworkAsset{{Category: media.ArtworkActor, TargetPath: "actors/Hiroyuki_Sanada.jpg", Status: media.ArtworkSkipped}}
	return rec
}

func TestMapSeries(t *testing.T) {
	doc, _, err := Map(context.Background(), seriesRecord(), Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Show == nil || doc.Path != "tvshow.nfo" {
		t.Fatalf("expected tvshow document at tvshow.nfo, got %q", doc.Path)
	}
	if doc.Show.Actors[0].Thumb != "actors/Hiroyuki_Sanada.jpg" {
		t.Fatalf("show actor thumb = %q", doc.Show.Actors[0].Thumb)
	}
	if len(doc.Episodes) != 2 {
		t.Fatalf("episodes = %d", len(doc.Episodes))
	}
	first := doc.Episodes[0]
	if first.Path != "Season 01/Shōgun - S01E01 - Anjin.nfo" {
		t.Fatalf("episode path = %q", first.Path)
	}
	if first.Details.Thumb != "Shōgun - S01E01 - Anjin-thumb.jpg" {
		t.Fatalf("episode thumb = %q", first.Details.Thumb)
	}
	if first.Details.Actors[0].Thumb != "../actors/Hiroyuki_Sanada.jpg" {
		t.Fatalf("episode actor thumb = %q", first.Details.Actors[0].Thumb)
	}
	second := doc.Episodes[1]
	if second.Details.Title != "Episode 2" || second.Path != "Season 01/Shōgun - S01E02.nfo" || second.Details.Thumb != "" {
		t.Fatalf("untitled episode = %+v at %q", second.Details, second.Path)
	}
	if err := Validate(doc); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateNamesField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
		doc    string
		field  string
		rule   string
	}{
		{"negative year", func(d *Document) { d.Movie.Year = -1 }, "movie", "year", "gte=0"},
		{"blank title", func(d *Document) { d.Movie.Title = "" }, "movie", "title", "required"},
		{"negative runtime", func(d *Document) { d.Movie.Runtime = -1 }, "movie", "runtime", "gte=0"},
		{"actor name", func(d *Document) { d.Movie.Actors[1].Name = "" }, "movie", "actor[1].name", "required"},
		{"uniqueid type", func(d *Document) { d.Movie.UniqueIDs[0].Type = "tvdb" }, "movie", "uniqueid[0].type", "oneof=tmdb imdb"},
		{"no uniqueid", func(d *Document) { d.Movie.UniqueIDs = nil }, "movie", "uniqueid", "min=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _, err := Map(context.Background(), movieRecord(), Options{}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := Validate(doc); err != nil {
				t.Fatalf("valid document rejected: %v", err)
			}
			tt.mutate(doc)
			err = Validate(doc)
			var verr *DescriptorValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected DescriptorValidationError, got %v", err)
			}
			if verr.Document != tt.doc || verr.Field != tt.field || verr.Rule != tt.rule {
				t.Fatalf("got %+v", verr)
			}
			if !errors.Is(err, services.ErrDescriptorInvalid) {
				t.Fatal("expected ErrDescriptorInvalid marker")
			}
		})
	}
}

func TestUndatedTitlesValidateAndRender(t *testing.T) {
	movie := movieRecord()
	movie.ReleaseDate = ""
	movie.Year = 0
	show := seriesRecord()
	show.ReleaseDate = ""
	show.Year = 0
	show.Status = "In Production"
	show.Seasons[0].Episodes[0].AirDate = ""
	show.Seasons[0].Episodes[1].AirDate = ""

	for _, tt := range []struct {
		name string
		rec  *media.Record
		path string
	}{
		{"movie", movie, "奥本海默.nfo"},
		{"show", show, "tvshow.nfo"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			doc, _, err := Map(context.Background(), tt.rec, Options{}, nil)
			if err != nil {
				t.Fatalf("Map: %v", err)
			}
			if err := Validate(doc); err != nil {
				t.Fatalf("undated %s rejected: %v", tt.name, err)
			}
			files, err := Render(doc)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if files[0].Path != tt.path {
				t.Fatalf("path = %q, want %q", files[0].Path, tt.path)
			}
			out := string(files[0].Data)
			if !strings.Contains(out, "<year>0</year>") || strings.Contains(out, "<premiered>") {
				t.Fatalf("undated %s rendered:\n%s", tt.name, out)
			}
		})
	}
}

func TestValidateShowStatus(t *testing.T) {
	rec := seriesRecord()
	rec.Status = "Sometimes"
	doc, _, _ := Map(context.Background(), rec, Options{}, nil)
	var verr *DescriptorValidationError
	if err := Validate(doc); !errors.As(err, &verr) || verr.Field != "status" {
		t.Fatalf("expected status violation, got %v", err)
	}
}

func TestRenderDeterministic(t *testing.T) {
	doc, _, err := Map(context.Background(), seriesRecord(), Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for range 5 {
		again, err := Render(doc)
		if err != nil {
			t.Fatal(err)
		}
		if len(again) != len(first) {
			t.Fatal("file count changed")
		}
		for i := range again {
			if again[i].Path != first[i].Path || !bytes.Equal(again[i].Data, first[i].Data) {
				t.Fatalf("render of %s is not deterministic", first[i].Path)
			}
		}
	}
	if len(first) != 3 || first[0].Path != "tvshow.nfo" {
		t.Fatalf("files = %d, first %q", len(first), first[0].Path)
	}
	if !bytes.HasPrefix(first[0].Data, []byte(Header)) {
		t.Fatal("missing xml header")
	}
}

func TestRenderMoviePlotCDATA(t *testing.T) {
	doc, _, _ := Map(context.Background(), movieRecord(), Options{}, nil)
	files, err := Render(doc)
	if err != nil {
		t.Fatal(err)
	}
	out := string(files[0].Data)
	for _, want := range []string{
		"<movie>",
		"<title>奥本海默</title>",
		"<plot><![CDATA[The story of J. Robert Oppenheimer.]]></plot>",
		`<uniqueid type="tmdb" default="true">872585</uniqueid>`,
		`<rating name="themoviedb" max="10" default="true">`,
		`<thumb aspect="poster">images/poster.jpg</thumb>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered movie missing %q:\n%s", want, out)
		}
	}
}
