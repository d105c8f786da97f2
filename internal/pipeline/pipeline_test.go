package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"metascraper/internal/fileutil"
	"metascraper/internal/layout"
	"metascraper/internal/media"
	"metascraper/internal/searchassist"
	"metascraper/internal/services"
)

func TestRunMovieByQuery(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.results["Oppenheimer"] = []media.Candidate{
		{ExternalID: "1185466", Title: "Oppenheimer: The Real Story", ReleaseYear: 2023, Popularity: 3, Kind: media.KindMovie},
		{ExternalID: "872585", Title: "Oppenheimer", OriginalTitle: "Oppenheimer", ReleaseYear: 2023, Popularity: 120, Kind: media.KindMovie},
	}
	env.catalog.details["movie/872585"] = oppenheimerDetail()

	report, err := env.runner(t).Run(context.Background(), media.Request{Query: "Oppenheimer", Kind: media.KindMovie})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("report status = %q, failure %+v", report.Status, report.Failure)
	}
	root := filepath.Join(env.outputDir, "Oppenheimer (2023)")
	if report.Root != root {
		t.Fatalf("root = %q, want %q", report.Root, root)
	}
	data, err := os.ReadFile(filepath.Join(root, "Oppenheimer (2023).nfo"))
	if err != nil {
		t.Fatalf("read descriptor: %v", err)
	}
	if !bytes.Contains(data, []byte("<title>Oppenheimer</title>")) {
		t.Fatalf("descriptor title is not the catalog title:\n%s", data)
	}
	if !bytes.Contains(data, []byte(`<uniqueid type="tmdb" default="true">872585</uniqueid>`)) {
		t.Fatalf("descriptor missing tmdb uniqueid:\n%s", data)
	}
	for _, rel := range []string{layout.Poster, layout.Fanart, layout.Banner, layout.Backdrop(1), layout.Logo} {
		if _, err := os.Stat(layout.Abs(root, rel)); err != nil {
			t.Fatalf("expected %s on disk: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, layout.Marker)); !os.IsNotExist(err) {
		t.Fatalf("marker should be removed after a successful write, stat err = %v", err)
	}
	if env.downloader.count("https://img.test/t/p/original/b1.jpg") != 1 {
		t.Fatalf("shared fanart/banner/backdrop url downloaded %d times", env.downloader.count("https://img.test/t/p/original/b1.jpg"))
	}
	if report.WrittenFiles[0] != "Oppenheimer (2023).nfo" {
		t.Fatalf("descriptors must be written first, got %v", report.WrittenFiles)
	}
	if report.TMDBID != "872585" || report.Year != 2023 {
		t.Fatalf("report identity = %s/%d", report.TMDBID, report.Year)
	}
}

func TestRunExternalIDBypassesSearchAndSelection(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.details["tv/77560"] = seriesDetail()

	report, err := env.runner(t).Run(context.Background(), media.Request{ExternalID: "77560", Kind: media.KindTV})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if env.catalog.searchCalls != 0 {
		t.Fatalf("catalog search called %d times", env.catalog.searchCalls)
	}
	if !slices.Equal(env.catalog.fetched, []string{"tv/77560"}) {
		t.Fatalf("detail fetches = %v", env.catalog.fetched)
	}
	for _, name := range []string{StageSearch, StageSelect} {
		if !slices.Contains(report.SkippedStages, name) {
			t.Fatalf("stage %s not reported skipped: %v", name, report.SkippedStages)
		}
	}

	root := filepath.Join(env.outputDir, "Hypothetical Show (2019)")
	for _, rel := range []string{
		layout.ShowDescriptor,
		"Season 01/Hypothetical Show - S01E01 - Pilot.nfo",
		"Season 01/Hypothetical Show - S01E02 - Second.nfo",
		"Season 01/Hypothetical Show - S01E01 - Pilot-thumb.jpg",
		"Season 01/Hypothetical Show - S01E02 - Second-thumb.jpg",
		layout.Still(1),
	} {
		if _, err := os.Stat(layout.Abs(root, rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "Season 00")); !os.IsNotExist(err) {
		t.Fatalf("specials season should be skipped")
	}
}

func TestRunNoResultsWithoutAidedSearch(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.runner(t).Run(context.Background(), media.Request{Query: "Nothing Matches", AidedSearch: false})
	if !errors.Is(err, services.ErrSearchExhausted) {
		t.Fatalf("expected search exhausted, got %v", err)
	}
	if env.assist.calls != 0 {
		t.Fatalf("search assist called %d times with aided search off", env.assist.calls)
	}
	if report == nil || report.Failure == nil || report.Failure.Kind != services.KindSearchExhausted {
		t.Fatalf("report failure = %+v", report)
	}
	if report.Failure.Stage != StageSearch {
		t.Fatalf("failure stage = %q", report.Failure.Stage)
	}
	if report.FinishedAt.IsZero() {
		t.Fatal("report not finalized after failure")
	}
	if services.Retryable(err) {
		t.Fatal("search exhaustion must not be retryable")
	}
}

func TestRunAidedSearchResolvesCatalogIDs(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.details["movie/872585"] = oppenheimerDetail()
	env.assist.hits = []searchassist.Hit{
		{URL: "https://www.themoviedb.org/movie/872585-oppenheimer", Title: "Oppenheimer (2023)"},
		{URL: "https://example.com/review", Snippet: "see themoviedb.org/movie/872585"},
	}

	report, err := env.runner(t).Run(context.Background(), media.Request{Query: "奥本海默", AidedSearch: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if env.assist.calls != 1 {
		t.Fatalf("assist calls = %d", env.assist.calls)
	}
	if report.TMDBID != "872585" {
		t.Fatalf("tmdb id = %q", report.TMDBID)
	}
}

func TestRunArtworkFailuresAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.details["movie/872585"] = oppenheimerDetail()
	env.downloader.fail["https://img.test/t/p/original/b3.jpg"] = true
	env.downloader.fail["https://img.test/t/p/original/logo.png"] = true

	report, err := env.runner(t).Run(context.Background(), media.Request{ExternalID: "872585", Kind: media.KindMovie})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	root := filepath.Join(env.outputDir, "Oppenheimer (2023)")

	warnings := report.WarningsOf(media.WarningArtwork)
	if len(warnings) != 2 {
		t.Fatalf("artwork warnings = %+v", warnings)
	}
	for _, rel := range []string{layout.Backdrop(3), layout.Logo} {
		if _, err := os.Stat(layout.Abs(root, rel)); !os.IsNotExist(err) {
			t.Fatalf("%s should be absent, stat err = %v", rel, err)
		}
		if slices.Contains(report.WrittenFiles, rel) {
			t.Fatalf("%s listed as written", rel)
		}
	}
	var images int
	for _, rel := range report.WrittenFiles {
		if strings.HasPrefix(rel, layout.ImagesDir+"/") {
			images++
		}
	}
	// poster, fanart, banner, backdrop1, backdrop2 out of seven planned.
	if images != 5 {
		t.Fatalf("images written = %d (%v)", images, report.WrittenFiles)
	}
	data, err := os.ReadFile(filepath.Join(root, "Oppenheimer (2023).nfo"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte("clearlogo")) || bytes.Contains(data, []byte("backdrop3")) {
		t.Fatalf("descriptor references failed artwork:\n%s", data)
	}
}

func TestRunSkipsExistingArtworkOnRerun(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.details["movie/872585"] = oppenheimerDetail()
	req := media.Request{ExternalID: "872585", Kind: media.KindMovie}

	first, err := env.runner(t).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	downloads := env.downloader.total()
	if downloads == 0 || len(first.SkippedFiles) != 0 {
		t.Fatalf("first run downloads = %d, skipped = %v", downloads, first.SkippedFiles)
	}

	second, err := env.runner(t).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := env.downloader.total(); got != downloads {
		t.Fatalf("re-run downloaded %d more files", got-downloads)
	}
	if !slices.Equal(second.WrittenFiles, []string{"Oppenheimer (2023).nfo"}) {
		t.Fatalf("re-run written = %v", second.WrittenFiles)
	}
	for _, rel := range []string{layout.Poster, layout.Fanart, layout.Backdrop(1)} {
		if !slices.Contains(second.SkippedFiles, rel) {
			t.Fatalf("%s not reported kept: %v", rel, second.SkippedFiles)
		}
	}
	data, err := os.ReadFile(filepath.Join(env.outputDir, "Oppenheimer (2023)", "Oppenheimer (2023).nfo"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<thumb aspect=\"poster\">images/poster.jpg</thumb>")) {
		t.Fatalf("descriptor drops artwork kept from the first run:\n%s", data)
	}
}

func TestRunArtworkPoolIsBounded(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.details["movie/872585"] = oppenheimerDetail()
	gated := newGatedDownloader(2)
	env.deps.Downloader = gated
	env.opts.Workers = 2

	report, err := env.runner(t).Run(context.Background(), media.Request{ExternalID: "872585", Kind: media.KindMovie})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("report = %+v", report.Failure)
	}
	if got := gated.maxInFlight(); got != 2 {
		t.Fatalf("peak concurrent downloads = %d, want 2", got)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	render := func() []byte {
		env := newTestEnv(t)
		env.catalog.details["movie/872585"] = oppenheimerDetail()
		if _, err := env.runner(t).Run(context.Background(), media.Request{ExternalID: "872585", Kind: media.KindMovie}); err != nil {
			t.Fatalf("Run: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(env.outputDir, "Oppenheimer (2023)", "Oppenheimer (2023).nfo"))
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	if first, second := render(), render(); !bytes.Equal(first, second) {
		t.Fatalf("descriptor differs between identical runs:\n%s\n---\n%s", first, second)
	}
}

func TestRunWriteFailureRollsBack(t *testing.T) {
	t.Run("root created by run is removed", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.details["movie/872585"] = oppenheimerDetail()
		env.deps.Sink = &failingSink{Sink: fileutil.NewSink(), match: "fanart"}

		report, err := env.runner(t).Run(context.Background(), media.Request{ExternalID: "872585", Kind: media.KindMovie})
		if !errors.Is(err, services.ErrWrite) {
			t.Fatalf("expected write error, got %v", err)
		}
		if report.Failure.Kind != services.KindWrite {
			t.Fatalf("failure kind = %q", report.Failure.Kind)
		}
		if _, err := os.Stat(filepath.Join(env.outputDir, "Oppenheimer (2023)")); !os.IsNotExist(err) {
			t.Fatalf("root should be removed, stat err = %v", err)
		}
	})

	t.Run("existing root keeps a failure marker", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.details["movie/872585"] = oppenheimerDetail()
		env.deps.Sink = &failingSink{Sink: fileutil.NewSink(), match: "fanart"}
		root := filepath.Join(env.outputDir, "Oppenheimer (2023)")
		if err := os.MkdirAll(root, 0o755); err != nil {
			t.Fatal(err)
		}

		if _, err := env.runner(t).Run(context.Background(), media.Request{ExternalID: "872585", Kind: media.KindMovie}); err == nil {
			t.Fatal("expected failure")
		}
		marker, err := os.ReadFile(filepath.Join(root, layout.Marker))
		if err != nil {
			t.Fatalf("marker missing: %v", err)
		}
		if !strings.Contains(string(marker), "status=failed") {
			t.Fatalf("marker = %q", marker)
		}
		if _, err := os.Stat(filepath.Join(root, "Oppenheimer (2023).nfo")); !os.IsNotExist(err) {
			t.Fatalf("descriptor written by the failed run should be removed")
		}
	})

	t.Run("failed re-run keeps earlier output", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.details["movie/872585"] = oppenheimerDetail()
		req := media.Request{ExternalID: "872585", Kind: media.KindMovie}
		if _, err := env.runner(t).Run(context.Background(), req); err != nil {
			t.Fatalf("first Run: %v", err)
		}
		root := filepath.Join(env.outputDir, "Oppenheimer (2023)")
		descriptor := filepath.Join(root, "Oppenheimer (2023).nfo")
		before, err := os.ReadFile(descriptor)
		if err != nil {
			t.Fatal(err)
		}

		changed := oppenheimerDetail()
		changed.Overview = "A different overview."
		env.catalog.details["movie/872585"] = changed
		env.opts.SkipExisting = false
		env.deps.Sink = &failingSink{Sink: fileutil.NewSink(), match: "fanart"}
		if _, err := env.runner(t).Run(context.Background(), req); !errors.Is(err, services.ErrWrite) {
			t.Fatalf("expected write error, got %v", err)
		}

		after, err := os.ReadFile(descriptor)
		if err != nil {
			t.Fatalf("previous descriptor lost: %v", err)
		}
		if !bytes.Equal(before, after) {
			t.Fatalf("previous descriptor changed:\n%s", after)
		}
		for _, rel := range []string{layout.Poster, layout.Fanart} {
			if _, err := os.Stat(layout.Abs(root, rel)); err != nil {
				t.Fatalf("previous %s lost: %v", rel, err)
			}
		}
		entries, err := os.ReadDir(filepath.Join(root, layout.ImagesDir))
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".prev") {
				t.Fatalf("backup %s left behind", e.Name())
			}
		}
		marker, err := os.ReadFile(filepath.Join(root, layout.Marker))
		if err != nil || !strings.Contains(string(marker), "status=failed") {
			t.Fatalf("failure marker = %q, err %v", marker, err)
		}
	})
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		req  media.Request
	}{
		{"empty", media.Request{}},
		{"non numeric id", media.Request{ExternalID: "abc", Kind: media.KindMovie}},
		{"id without kind", media.Request{ExternalID: "603"}},
		{"bad imdb id", media.Request{SecondaryID: "nm0634240"}},
		{"unknown kind", media.Request{Query: "x", Kind: "podcast"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			report, err := env.runner(t).Run(context.Background(), tt.req)
			if !errors.Is(err, services.ErrInput) {
				t.Fatalf("expected input error, got %v", err)
			}
			if report.Failure.Kind != services.KindInput {
				t.Fatalf("failure kind = %q", report.Failure.Kind)
			}
		})
	}
}

func TestRunResolvesIMDbID(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.details["movie/872585"] = oppenheimerDetail()

	report, err := env.runner(t).Run(context.Background(), media.Request{SecondaryID: "TT15398776"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TMDBID != "872585" || env.catalog.searchCalls != 0 {
		t.Fatalf("tmdb id = %q, searches = %d", report.TMDBID, env.catalog.searchCalls)
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.details["movie/872585"] = oppenheimerDetail()

	reports, err := env.runner(t).RunBatch(context.Background(), []media.Request{
		{Query: "Nothing Matches"},
		{ExternalID: "872585", Kind: media.KindMovie},
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d", len(reports))
	}
	if reports[0].Succeeded() || !reports[1].Succeeded() {
		t.Fatalf("statuses = %s, %s", reports[0].Status, reports[1].Status)
	}
}

func TestRunCanceled(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := env.runner(t).Run(ctx, media.Request{Query: "Oppenheimer"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if report.Failure.Kind != services.KindCanceled {
		t.Fatalf("failure kind = %q", report.Failure.Kind)
	}

	reports, err := env.runner(t).RunBatch(ctx, []media.Request{{Query: "a"}, {Query: "b"}})
	if !errors.Is(err, context.Canceled) || len(reports) != 0 {
		t.Fatalf("batch after cancel: %d reports, err %v", len(reports), err)
	}
}
