package omdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"metascraper/internal/media"
	"metascraper/internal/omdb"
)

const oppenheimer = `{
  "Title": "Oppenheimer", "Year": "2023", "Rated": "R",
  "Director": "Christopher Nolan",
  "Writer": "Christopher Nolan, Kai Bird (book), Martin Sherwin (book)",
  "Actors": "Cillian Murphy, Emily Blunt, Matt Damon",
  "Plot": "The story of J. Robert Oppenheimer.",
  "Ratings": [
    {"Source": "Internet Movie Database", "Value": "8.3/10"},
    {"Source": "Rotten Tomatoes", "Value": "93%"},
    {"Source": "Metacritic", "Value": "90/100"}
  ],
  "Metascore": "90", "imdbRating": "8.3", "imdbVotes": "812,345",
  "imdbID": "tt15398776", "Type": "movie", "Response": "True"
}`

func TestLookupParsesRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("i") != "tt15398776" || r.URL.Query().Get("apikey") != "key" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(oppenheimer))
	}))
	t.Cleanup(server.Close)

	client, err := omdb.New("key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := client.Lookup(context.Background(), "tt15398776")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := rec.ActorNames(); len(got) != 3 || got[1] != "Emily Blunt" {
		t.Fatalf("actors = %v", got)
	}
	if got := rec.WriterNames(); len(got) != 3 || got[1] != "Kai Bird" {
		t.Fatalf("writers = %v", got)
	}
	ratings := rec.ParsedRatings()
	if r := ratings[media.RatingIMDb]; r.Score != 8.3 || r.Max != 10 || r.Votes != 812345 {
		t.Fatalf("imdb rating = %+v", r)
	}
	if r := ratings[media.RatingRottenTomatoes]; r.Score != 93 || r.Max != 100 {
		t.Fatalf("rt rating = %+v", r)
	}
	if r := ratings[media.RatingMetacritic]; r.Score != 90 || r.Max != 100 {
		t.Fatalf("metacritic rating = %+v", r)
	}
	if rec.Certification() != "R" {
		t.Fatalf("certification = %q", rec.Certification())
	}
}

func TestLookupNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	}))
	t.Cleanup(server.Close)

	client, _ := omdb.New("key", server.URL)
	if _, err := client.Lookup(context.Background(), "tt0"); !errors.Is(err, omdb.ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, _ := omdb.New("key", server.URL, omdb.WithBreaker(2, time.Hour))
	ctx := context.Background()
	for range 2 {
		if _, err := client.Lookup(ctx, "tt1"); err == nil || omdb.IsOpen(err) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}
	_, err := client.Lookup(ctx, "tt1")
	if !omdb.IsOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("open circuit should not call upstream, calls = %d", calls.Load())
	}
	if client.BreakerState() != "open" {
		t.Fatalf("state = %s", client.BreakerState())
	}
}

func TestNARecordsAreEmpty(t *testing.T) {
	rec := &omdb.Record{Actors: "N/A", Plot: "N/A", Rated: "Not Rated", IMDbRating: "N/A"}
	if rec.ActorNames() != nil || rec.PlotText() != "" || rec.Certification() != "" {
		t.Fatalf("N/A values should be empty: %+v", rec)
	}
	if len(rec.ParsedRatings()) != 0 {
		t.Fatal("expected no ratings")
	}
}
