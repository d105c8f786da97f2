package main

import (
	"fmt"
	"log/slog"
	"time"

	"metascraper/internal/cache"
	"metascraper/internal/config"
	"metascraper/internal/fileutil"
	"metascraper/internal/httpx"
	"metascraper/internal/logging"
	"metascraper/internal/notifications"
	"metascraper/internal/omdb"
	"metascraper/internal/pipeline"
	"metascraper/internal/searchassist"
	"metascraper/internal/services/llm"
	"metascraper/internal/tmdb"
)

// session bundles what a pipeline command needs. close releases the cache.
type session struct {
	runner   *pipeline.Runner
	notifier notifications.Service
	logger   *slog.Logger
	store    cache.Cache
}

func (r *session) close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Debug("cache close failed", logging.Error(err))
	}
}

// newSession wires the clients selected by cfg into a Runner. Optional
// collaborators are left nil when unconfigured so the pipeline skips them.
func newSession(cfg *config.Config, logger *slog.Logger, opts pipeline.Options) (*session, error) {
	store, err := cache.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	rt := &session{logger: logger, store: store, notifier: notifications.NewService(cfg)}

	httpClient := httpx.NewClient(0)
	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithHTTPClient(httpClient),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond, cfg.TMDB.Burst))
	if err != nil {
		rt.close()
		logger.Warn("tmdb client initialization failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "tmdb_client_init_failed"),
			logging.String(logging.FieldErrorHint, "verify tmdb.api_key in config"),
			logging.String(logging.FieldImpact, "no title can be resolved"))
		return nil, fmt.Errorf("create tmdb client: %w", err)
	}

	deps := pipeline.Deps{
		Catalog:    tmdb.NewCatalog(tmdbClient, store, time.Duration(cfg.TMDB.CacheTTLHours)*time.Hour, logger),
		Cache:      store,
		Sink:       fileutil.NewSink(),
		Downloader: httpx.NewDownloader(httpClient, cfg.Artwork.MaxBytes),
		Logger:     logger,
	}

	if cfg.OMDbEnabled() {
		secondary, err := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL,
			omdb.WithHTTPClient(httpClient),
			omdb.WithBreaker(cfg.OMDb.FailureThreshold, time.Duration(cfg.OMDb.CooldownSeconds)*time.Second),
			omdb.WithLogger(logger))
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("create omdb client: %w", err)
		}
		deps.Secondary = secondary
	} else {
		logger.Debug("secondary source disabled", logging.String("reason", "omdb.api_key not set"))
	}

	if cfg.SearchAssistEnabled() {
		assist, err := searchassist.New(searchassist.FromConfig(cfg), httpClient, logger)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("create search assist: %w", err)
		}
		deps.Assist = assist
	}

	if cfg.LLMEnabled() {
		deps.Generator = llm.NewClient(llm.Config(cfg.GetLLM()))
	} else {
		logger.Debug("text generator disabled", logging.String("reason", "llm.api_key not set"))
	}

	runner, err := pipeline.NewRunner(deps, opts)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.runner = runner
	return rt, nil
}
