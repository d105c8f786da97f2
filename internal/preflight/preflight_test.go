package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"metascraper/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOutputDirectoryNotYetCreated(t *testing.T) {
	result := CheckOutputDirectory(filepath.Join(t.TempDir(), "media", "new"))
	if !result.Passed {
		t.Fatalf("expected pass under a writable ancestor, got: %s", result.Detail)
	}
}

func testConfig(t *testing.T, tmdbURL string) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = ""
	cfg.TMDB.APIKey = "good-key"
	cfg.TMDB.BaseURL = tmdbURL
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

func tmdbServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("api_key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"images":{"secure_base_url":"https://image.tmdb.org/t/p/"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckTMDB(t *testing.T) {
	srv := tmdbServer(t)

	cfg := testConfig(t, srv.URL)
	if result := CheckTMDB(context.Background(), cfg, srv.Client()); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	cfg.TMDB.APIKey = "bad-key"
	result := CheckTMDB(context.Background(), cfg, srv.Client())
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckOMDb(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("apikey") != "omdb-key" {
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
			return
		}
		_, _ = w.Write([]byte(`{"Response":"True","Title":"The Shawshank Redemption","imdbID":"tt0111161"}`))
	}))
	defer srv.Close()

	cfg := testConfig(t, "https://api.themoviedb.org/3")
	cfg.OMDb.APIKey = "omdb-key"
	cfg.OMDb.BaseURL = srv.URL
	if result := CheckOMDb(context.Background(), cfg, srv.Client()); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	cfg.OMDb.APIKey = "wrong"
	if result := CheckOMDb(context.Background(), cfg, srv.Client()); result.Passed {
		t.Fatal("expected failure for invalid key")
	}
}

func TestCheckLLMMissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), "LLM", config.LLMConfig{}, nil)
	if result.Passed || result.Detail != "API key missing" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunAllSkipsUnconfiguredServices(t *testing.T) {
	srv := tmdbServer(t)
	cfg := testConfig(t, srv.URL)

	results := RunAll(context.Background(), cfg, srv.Client())
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Output directory", "Cache directory", "TMDB"} {
		if !byName[name].Passed {
			t.Fatalf("expected %s to pass, got %+v", name, byName[name])
		}
	}
	for _, name := range []string{"OMDb", "LLM"} {
		if !byName[name].Skipped {
			t.Fatalf("expected %s to be skipped, got %+v", name, byName[name])
		}
	}
	if _, ok := byName["Log directory"]; ok {
		t.Fatal("log directory should not be checked when unset")
	}
	if n := Failed(results); n != 0 {
		t.Fatalf("expected no failures, got %d", n)
	}
}
