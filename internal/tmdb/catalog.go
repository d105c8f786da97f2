package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"metascraper/internal/cache"
	"metascraper/internal/logging"
	"metascraper/internal/media"
)

// ErrNoMatch is returned when /find knows nothing about an external id.
var ErrNoMatch = errors.New("tmdb: no match for external id")

// Catalog adapts Client to the pipeline: it maps search hits to candidates,
// fetches series seasons alongside details, and caches responses.
type Catalog struct {
	client *Client
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCatalog wraps client. A nil store disables caching.
func NewCatalog(client *Client, store cache.Cache, ttl time.Duration, logger *slog.Logger) *Catalog {
	if store == nil {
		store = cache.Nop{}
	}
	return &Catalog{
		client: client,
		cache:  store,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "tmdb"),
	}
}

// Search runs one search per kind (both kinds for auto, series first) and
// returns the hits as candidates.
func (c *Catalog) Search(ctx context.Context, query string, kind media.Kind, year int) ([]media.Candidate, error) {
	kinds := []media.Kind{kind}
	if !kind.Concrete() {
		kinds = []media.Kind{media.KindTV, media.KindMovie}
	}

	var out []media.Candidate
	for _, k := range kinds {
		key := cache.Key("tmdb", "search/"+string(k)+"/"+cache.Digest(strings.ToLower(query)+"|"+strconv.Itoa(year)), c.client.Language())
		resp, err := cached(ctx, c, key, func() (*Response, error) {
			opts := SearchOptions{Year: year}
			if k == media.KindTV {
				return c.client.SearchTV(ctx, query, opts)
			}
			return c.client.SearchMovie(ctx, query, opts)
		})
		if err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			out = append(out, candidateFromResult(r, k))
		}
		c.logger.Debug("tmdb search complete",
			logging.String("query", query),
			logging.String("kind", string(k)),
			logging.Int("year", year),
			logging.Int("results", len(resp.Results)))
	}
	return out, nil
}

func candidateFromResult(r Result, kind media.Kind) media.Candidate {
	title, original, date := r.Title, r.OriginalTitle, r.ReleaseDate
	if kind == media.KindTV {
		title, original, date = r.Name, r.OriginalName, r.FirstAirDate
	}
	if title == "" {
		title = firstNonEmpty(r.Title, r.Name)
	}
	return media.Candidate{
		ExternalID:    strconv.FormatInt(r.ID, 10),
		Title:         title,
		OriginalTitle: original,
		ReleaseYear:   yearOf(date),
		Popularity:    r.Popularity,
		Kind:          kind,
	}
}

// FetchDetail returns the full record for id. For series every regular
// season is fetched; a failing season is recorded in SeasonErrors rather
// than failing the call.
func (c *Catalog) FetchDetail(ctx context.Context, id string, kind media.Kind) (*Detail, error) {
	numeric, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || numeric <= 0 {
		return nil, fmt.Errorf("tmdb id %q is not a positive integer", id)
	}
	if !kind.Concrete() {
		return nil, fmt.Errorf("tmdb detail needs a concrete kind, got %q", kind)
	}
	lang := c.client.Language()

	key := cache.Key("tmdb", string(kind)+"/"+id, lang)
	detail, err := cached(ctx, c, key, func() (*Detail, error) {
		if kind == media.KindTV {
			return c.client.GetTVDetail(ctx, numeric, lang)
		}
		return c.client.GetMovieDetail(ctx, numeric, lang)
	})
	if err != nil {
		return nil, err
	}
	if kind != media.KindTV {
		return detail, nil
	}

	detail.SeasonDetails = nil
	detail.SeasonErrors = nil
	for _, summary := range detail.Seasons {
		if summary.SeasonNumber <= 0 {
			continue
		}
		seasonKey := cache.Key("tmdb", fmt.Sprintf("tv/%d/season/%d", numeric, summary.SeasonNumber), lang)
		season, err := cached(ctx, c, seasonKey, func() (*SeasonDetails, error) {
			return c.client.GetSeasonDetails(ctx, numeric, summary.SeasonNumber, lang)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logging.WarnWithContext(c.logger, "tmdb season fetch failed", "tmdb_season_failed",
				logging.Int64("tmdb_id", numeric),
				logging.Int("season", summary.SeasonNumber),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "retry later; TMDB may be rate limiting"),
				logging.String(logging.FieldImpact, "episodes of this season are omitted"))
			detail.SeasonErrors = append(detail.SeasonErrors, SeasonError{SeasonNumber: summary.SeasonNumber, Message: err.Error()})
			continue
		}
		detail.SeasonDetails = append(detail.SeasonDetails, *season)
	}
	return detail, nil
}

// FindByIMDbID resolves an IMDb id to a TMDB id and kind. Movies win when
// both lists match.
func (c *Catalog) FindByIMDbID(ctx context.Context, imdbID string) (string, media.Kind, error) {
	key := cache.Key("tmdb", "find/"+strings.ToLower(imdbID), "")
	resp, err := cached(ctx, c, key, func() (*FindResponse, error) {
		return c.client.FindByIMDbID(ctx, imdbID)
	})
	if err != nil {
		return "", "", err
	}
	switch {
	case len(resp.MovieResults) > 0:
		return strconv.FormatInt(resp.MovieResults[0].ID, 10), media.KindMovie, nil
	case len(resp.TVResults) > 0:
		return strconv.FormatInt(resp.TVResults[0].ID, 10), media.KindTV, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrNoMatch, imdbID)
	}
}

func cached[T any](ctx context.Context, c *Catalog, key string, fetch func() (*T, error)) (*T, error) {
	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Debug("cache read failed", logging.String("key", key), logging.Error(err))
	} else if ok {
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			c.logger.Debug("tmdb cache hit", logging.String("key", key))
			return &value, nil
		}
	}

	value, err := fetch()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(value); err == nil {
		if err := c.cache.Put(ctx, key, data, c.ttl); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", key), logging.Error(err))
		}
	}
	return value, nil
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
