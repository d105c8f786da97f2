package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"metascraper/internal/cache"
	"metascraper/internal/fileutil"
	"metascraper/internal/media"
	"metascraper/internal/omdb"
	"metascraper/internal/searchassist"
	"metascraper/internal/tmdb"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type stubCatalog struct {
	mu          sync.Mutex
	results     map[string][]media.Candidate
	details     map[string]*tmdb.Detail
	searchCalls int
	fetched     []string
}

func (s *stubCatalog) Search(_ context.Context, query string, _ media.Kind, _ int) ([]media.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	return s.results[query], nil
}

func (s *stubCatalog) FetchDetail(_ context.Context, id string, kind media.Kind) (*tmdb.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(kind) + "/" + id
	s.fetched = append(s.fetched, key)
	d, ok := s.details[key]
	if !ok {
		return nil, &tmdb.StatusError{Endpoint: key, StatusCode: 404}
	}
	return d, nil
}

func (s *stubCatalog) FindByIMDbID(_ context.Context, imdbID string) (string, media.Kind, error) {
	for key, d := range s.details {
		if d.IMDb() == imdbID {
			kind, id, _ := strings.Cut(key, "/")
			return id, media.Kind(kind), nil
		}
	}
	return "", "", tmdb.ErrNoMatch
}

type stubAssist struct {
	hits  []searchassist.Hit
	err   error
	calls int
}

func (s *stubAssist) Find(context.Context, string) ([]searchassist.Hit, error) {
	s.calls++
	return s.hits, s.err
}

type stubSecondary struct {
	rec   *omdb.Record
	err   error
	calls int
}

func (s *stubSecondary) Lookup(context.Context, string) (*omdb.Record, error) {
	s.calls++
	return s.rec, s.err
}

type stubGenerator struct {
	mu      sync.Mutex
	respond func(system, user string) (string, error)
	prompts []string
}

func (s *stubGenerator) Complete(_ context.Context, system, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, user)
	if s.respond == nil {
		return "", errors.New("no response configured")
	}
	return s.respond(system, user)
}

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// stubDownloader serves PNG bytes for every URL except those in fail.
type stubDownloader struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

func (s *stubDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[url]++
	failing := s.fail[url]
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if failing {
		return nil, "", errors.New("status 500")
	}
	return pngBytes, "image/png", nil
}

func (s *stubDownloader) count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func (s *stubDownloader) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// gatedDownloader holds each download until limit downloads are in flight
// at once, or a short timeout passes, and records the peak.
type gatedDownloader struct {
	limit int
	full  chan struct{}
	once  sync.Once

	mu       sync.Mutex
	inflight int
	peak     int
}

func newGatedDownloader(limit int) *gatedDownloader {
	return &gatedDownloader{limit: limit, full: make(chan struct{})}
}

func (g *gatedDownloader) Download(ctx context.Context, _ string) ([]byte, string, error) {
	g.mu.Lock()
	g.inflight++
	g.peak = max(g.peak, g.inflight)
	if g.inflight >= g.limit {
		g.once.Do(func() { close(g.full) })
	}
	g.mu.Unlock()

	select {
	case <-g.full:
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
	}
	time.Sleep(5 * time.Millisecond)

	g.mu.Lock()
	g.inflight--
	g.mu.Unlock()
	return pngBytes, "image/png", nil
}

func (g *gatedDownloader) maxInFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

// failingSink fails writes whose path contains match.
type failingSink struct {
	*fileutil.Sink
	match string
}

func (s *failingSink) Write(path string, data []byte) error {
	if strings.Contains(path, s.match) {
		return errors.New("disk full")
	}
	return s.Sink.Write(path, data)
}

// memCache keeps entries in memory and ignores ttl.
type memCache struct {
	cache.Nop
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	return nil
}

func oppenheimerDetail() *tmdb.Detail {
	d := &tmdb.Detail{
		MediaType:        "movie",
		ID:               872585,
		Title:            "Oppenheimer",
		OriginalTitle:    "Oppenheimer",
		OriginalLanguage: "en",
		Overview:         "The story of J. Robert Oppenheimer's role in the development of the atomic bomb.",
		Tagline:          "The world forever changes.",
		ReleaseDate:      "2023-07-19",
		Runtime:          181,
		Genres:           []tmdb.Named{{ID: 18, Name: "Drama"}, {ID: 36, Name: "History"}},
		Popularity:       120.5,
		VoteAverage:      8.1,
		VoteCount:        9000,
		IMDbID:           "tt15398776",
		Credits: tmdb.Credits{
			Cast: []tmdb.CastMember{
				{ID: 2037, Name: "Cillian Murphy", Character: "J. Robert Oppenheimer", Order: 0, ProfilePath: "/cillian.jpg"},
				{ID: 5081, Name: "Emily Blunt", Character: "Kitty Oppenheimer", Order: 1},
			},
			Crew: []tmdb.CrewMember{
				{ID: 525, Name: "Christopher Nolan", Job: "Director", Department: "Directing"},
				{ID: 525, Name: "Christopher Nolan", Job: "Screenplay", Department: "Writing"},
				{ID: 900, Name: "Hoyte van Hoytema", Job: "Director of Photography", Department: "Camera"},
			},
		},
		Images: tmdb.Images{
			Posters:   []tmdb.Image{{FilePath: "/poster-en.jpg", ISO639: "en"}},
			Backdrops: []tmdb.Image{{FilePath: "/b1.jpg"}, {FilePath: "/b2.jpg"}, {FilePath: "/b3.jpg"}},
			Logos:     []tmdb.Image{{FilePath: "/logo.png", ISO639: "en"}},
		},
	}
	return d
}

func seriesDetail() *tmdb.Detail {
	return &tmdb.Detail{
		MediaType:    "tv",
		ID:           77560,
		Name:         "Hypothetical Show",
		OriginalName: "Hypothetical Show",
		Overview:     "A show used in tests.",
		FirstAirDate: "2019-01-08",
		Status:       "Ended",
		Networks:     []tmdb.Named{{ID: 1, Name: "Network One"}},
		Credits: tmdb.Credits{
			Cast: []tmdb.CastMember{{Name: "Lead Actor", Character: "Lead", Order: 0}},
		},
		Images: tmdb.Images{
			Posters:   []tmdb.Image{{FilePath: "/show-poster.jpg"}},
			Backdrops: []tmdb.Image{{FilePath: "/show-fanart.jpg"}},
		},
		Seasons: []tmdb.SeasonSummary{{SeasonNumber: 0}, {SeasonNumber: 1}},
		SeasonDetails: []tmdb.SeasonDetails{
			{SeasonNumber: 0, Episodes: []tmdb.Episode{{EpisodeNumber: 1, Name: "Special"}}},
			{SeasonNumber: 1, Episodes: []tmdb.Episode{
				{EpisodeNumber: 1, Name: "Pilot", AirDate: "2019-01-08", StillPath: "/s1e1.jpg"},
				{EpisodeNumber: 2, Name: "Second", AirDate: "2019-01-15"},
			}},
		},
	}
}

type testEnv struct {
	catalog    *stubCatalog
	assist     *stubAssist
	downloader *stubDownloader
	outputDir  string
	deps       Deps
	opts       Options
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		catalog: &stubCatalog{
			results: map[string][]media.Candidate{},
			details: map[string]*tmdb.Detail{},
		},
		assist:     &stubAssist{},
		downloader: &stubDownloader{fail: map[string]bool{}},
		outputDir:  t.TempDir(),
	}
	fixed := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	env.deps = Deps{
		Catalog:    env.catalog,
		Assist:     env.assist,
		Sink:       fileutil.NewSink(),
		Downloader: env.downloader,
		Now:        func() time.Time { return fixed },
		NewRunID:   func() string { return "run-1" },
	}
	env.opts = Options{
		OutputDir:     env.outputDir,
		ImageBaseURL:  "https://img.test/t/p/original",
		CatalogLocale: media.LocaleEnUS,
		MaxAssistIDs:  3,
		Translate:     true,
		Workers:       4,
		MaxBackdrops:  3,
		MaxStills:     10,
		MaxCast:       20,
		EpisodeThumbs: true,
		SkipExisting:  true,
	}
	return env
}

func (e *testEnv) runner(t *testing.T) *Runner {
	t.Helper()
	r, err := NewRunner(e.deps, e.opts)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}
