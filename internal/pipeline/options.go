package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"metascraper/internal/cache"
	"metascraper/internal/config"
	"metascraper/internal/media"
)

// Options carries the run policy.
type Options struct {
	OutputDir    string
	ImageBaseURL string
	// CatalogLocale is the locale the catalog answers in; untranslated
	// catalog fields are stored under it.
	CatalogLocale media.Locale
	MaxAssistIDs  int

	Translate         bool
	TagCacheTTL       time.Duration
	SynthesizeTagline bool

	Workers       int
	MaxBackdrops  int
	MaxStills     int
	MaxCast       int
	ActorThumbs   bool
	EpisodeThumbs bool
	SkipExisting  bool

	RunTimeout time.Duration
}

// OptionsFromConfig derives run options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:         cfg.Paths.OutputDir,
		ImageBaseURL:      cfg.TMDB.ImageBaseURL,
		CatalogLocale:     catalogLocale(cfg.TMDB.Language),
		MaxAssistIDs:      cfg.SearchAssist.MaxIDs,
		Translate:         cfg.Translation.Enabled,
		TagCacheTTL:       time.Duration(cfg.Translation.TagCacheTTLDays) * 24 * time.Hour,
		SynthesizeTagline: cfg.Translation.Enabled,
		Workers:           cfg.Artwork.Workers,
		MaxBackdrops:      cfg.Artwork.MaxBackdrops,
		MaxStills:         cfg.Artwork.MaxStills,
		MaxCast:           cfg.Artwork.MaxCast,
		ActorThumbs:       cfg.Artwork.ActorThumbs,
		EpisodeThumbs:     cfg.Artwork.EpisodeThumbs,
		SkipExisting:      cfg.Artwork.SkipExisting,
		RunTimeout:        time.Duration(cfg.Pipeline.RunTimeoutSeconds) * time.Second,
	}
}

func catalogLocale(language string) media.Locale {
	lang, region, _ := strings.Cut(strings.TrimSpace(language), "-")
	if loc := media.CanonicalLocale(lang, region); loc != "" {
		return loc
	}
	return media.FallbackLocale
}

// Deps are the collaborators a Runner uses. Catalog, Sink, and Downloader
// are required; the others may be nil, which disables the feature that
// needs them.
type Deps struct {
	Catalog    CatalogClient
	Secondary  SecondarySourceClient
	Assist     SearchAssist
	Generator  TextGenerator
	Cache      cache.Cache
	Sink       FileSink
	Downloader Downloader
	Logger     *slog.Logger

	// Now and NewRunID are overridable for tests.
	Now      func() time.Time
	NewRunID func() string
}

func (d *Deps) setDefaults() {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewRunID == nil {
		d.NewRunID = uuid.NewString
	}
}
