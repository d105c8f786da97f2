package searchassist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"metascraper/internal/config"
)

func TestModeSelection(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{"auto without credentials", Settings{Mode: "auto"}, config.SearchModeCrawl},
		{"auto with credentials", Settings{Mode: "auto", APIKey: "k", EngineID: "cx"}, config.SearchModeAPI},
		{"explicit crawl", Settings{Mode: "crawl", APIKey: "k", EngineID: "cx"}, config.SearchModeCrawl},
		{"empty defaults to auto", Settings{}, config.SearchModeCrawl},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.settings, http.DefaultClient, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := c.Mode(); got != tt.want {
				t.Fatalf("Mode() = %q, want %q", got, tt.want)
			}
		})
	}
	if _, err := New(Settings{Mode: "api"}, nil, nil); err == nil {
		t.Fatal("expected api mode without credentials to fail")
	}
	if _, err := New(Settings{Mode: "bing"}, nil, nil); err == nil {
		t.Fatal("expected unknown mode to fail")
	}
}

func TestFindAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("cx") != "cx" {
			t.Errorf("missing credentials: %q", r.URL.RawQuery)
		}
		if !strings.Contains(q.Get("q"), "site:themoviedb.org") {
			t.Errorf("query not scoped: %q", q.Get("q"))
		}
		_, _ = w.Write([]byte(`{"items":[{"link":"https://www.themoviedb.org/movie/872585-oppenheimer","title":"Oppenheimer (2023)","snippet":"..."}]}`))
	}))
	t.Cleanup(server.Close)

	c, err := New(Settings{Mode: "api", APIKey: "k", EngineID: "cx", APIURL: server.URL}, server.Client(), nil)
	if err != nil {
		t.Fatal(err)
	}
	hits, err := c.Find(context.Background(), "oppenheimer")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(hits) != 1 || hits[0].URL != "https://www.themoviedb.org/movie/872585-oppenheimer" {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestFindCrawlUnwrapsRedirects(t *testing.T) {
	page := `<html><body>
<div class="g"><div><a href="/url?q=https://www.themoviedb.org/tv/77560-shogun&amp;sa=U"><h3>Shōgun (TV Series)</h3></a></div><span>FX series</span></div>
<div class="g"><div><a href="https://www.google.com/preferences">Settings</a></div></div>
<div class="g"><div><a href="https://en.wikipedia.org/wiki/Sh%C5%8Dgun">Shōgun - Wikipedia</a></div></div>
</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	c, _ := New(Settings{Mode: "crawl", CrawlURL: server.URL}, server.Client(), nil)
	hits, err := c.Find(context.Background(), "shogun")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", hits)
	}
	if hits[0].URL != "https://www.themoviedb.org/tv/77560-shogun" || hits[0].Title != "Shōgun (TV Series)" {
		t.Fatalf("first hit = %+v", hits[0])
	}
}

func TestFindCrawlBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><noscript>Please enable JavaScript</noscript></html>`))
	}))
	t.Cleanup(server.Close)

	c, _ := New(Settings{Mode: "crawl", CrawlURL: server.URL}, server.Client(), nil)
	if _, err := c.Find(context.Background(), "x"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}
