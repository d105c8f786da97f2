package pipeline

import (
	"context"

	"metascraper/internal/media"
	"metascraper/internal/omdb"
	"metascraper/internal/searchassist"
	"metascraper/internal/tmdb"
)

// CatalogClient is the primary catalog (TMDB).
type CatalogClient interface {
	Search(ctx context.Context, query string, kind media.Kind, year int) ([]media.Candidate, error)
	FetchDetail(ctx context.Context, id string, kind media.Kind) (*tmdb.Detail, error)
	FindByIMDbID(ctx context.Context, imdbID string) (string, media.Kind, error)
}

// SecondarySourceClient supplies extra ratings and credits keyed by IMDb id.
type SecondarySourceClient interface {
	Lookup(ctx context.Context, imdbID string) (*omdb.Record, error)
}

// SearchAssist is the web search used when the catalog search is empty.
type SearchAssist interface {
	Find(ctx context.Context, query string) ([]searchassist.Hit, error)
}

// TextGenerator produces translations and taglines.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// FileSink is the output filesystem. Paths are absolute.
type FileSink interface {
	Write(path string, data []byte) error
	Exists(path string) bool
	Remove(path string) error
	Rename(src, dst string) error
	// MkdirAll creates path and returns the directories it created,
	// outermost first.
	MkdirAll(path string) ([]string, error)
}

// Downloader fetches artwork bytes and reports their media type.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}
