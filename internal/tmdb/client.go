package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps outgoing requests. A non-positive rps disables the cap.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Language returns the default request language.
func (c *Client) Language() string {
	return c.language
}

// StatusError reports a non-200 TMDB response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Endpoint, e.StatusCode, e.Latency)
}

// IsNotFound reports whether err is a TMDB 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsTransient reports whether err is worth retrying later (429 or 5xx).
func IsTransient(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
}

// SearchOptions contains optional parameters for searches.
type SearchOptions struct {
	Year     int
	Language string
	Page     int
}

// SearchMovie performs a TMDB movie search.
func (c *Client) SearchMovie(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	return c.search(ctx, "movie", "primary_release_year", query, opts)
}

// SearchTV performs a TMDB series search.
func (c *Client) SearchTV(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	return c.search(ctx, "tv", "first_air_date_year", query, opts)
}

func (c *Client) search(ctx context.Context, kind, yearParam, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	if opts.Year > 0 {
		params.Set(yearParam, strconv.Itoa(opts.Year))
	}
	if opts.Page > 1 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	var payload Response
	if err := c.get(ctx, "/search/"+kind, opts.Language, params, &payload); err != nil {
		return nil, err
	}
	for i := range payload.Results {
		payload.Results[i].MediaType = kind
	}
	return &payload, nil
}

const (
	movieAppend = "credits,keywords,images,external_ids,translations,release_dates"
	tvAppend    = "credits,keywords,images,external_ids,translations,content_ratings"
)

// GetMovieDetail fetches a movie with credits, keywords, images, external
// ids, translations, and release dates appended.
func (c *Client) GetMovieDetail(ctx context.Context, movieID int64, language string) (*Detail, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	return c.detail(ctx, fmt.Sprintf("/movie/%d", movieID), "movie", movieAppend, language)
}

// GetTVDetail fetches a series with credits, keywords, images, external
// ids, translations, and content ratings appended.
func (c *Client) GetTVDetail(ctx context.Context, showID int64, language string) (*Detail, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	return c.detail(ctx, fmt.Sprintf("/tv/%d", showID), "tv", tvAppend, language)
}

func (c *Client) detail(ctx context.Context, path, mediaType, appendTo, language string) (*Detail, error) {
	params := url.Values{}
	params.Set("append_to_response", appendTo)
	params.Set("include_image_language", imageLanguages(language))
	var payload Detail
	if err := c.get(ctx, path, language, params, &payload); err != nil {
		return nil, err
	}
	payload.MediaType = mediaType
	return &payload, nil
}

// GetSeasonDetails fetches the full season metadata for a series, including episodes.
func (c *Client) GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int, language string) (*SeasonDetails, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	if seasonNumber < 0 {
		return nil, errors.New("season number must not be negative")
	}
	var payload SeasonDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber), language, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FindByIMDbID resolves an IMDb id through /find.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (*FindResponse, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("external_source", "imdb_id")
	var payload FindResponse
	if err := c.get(ctx, "/find/"+url.PathEscape(imdbID), "", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Ping fetches /configuration to confirm the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	var payload struct {
		Images struct {
			SecureBaseURL string `json:"secure_base_url"`
		} `json:"images"`
	}
	return c.get(ctx, "/configuration", "", nil, &payload)
}

func (c *Client) get(ctx context.Context, path, language string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if language == "" {
		language = c.language
	}
	if language != "" {
		params.Set("language", language)
	}
	endpoint.RawQuery = params.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("tmdb rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Latency: latency}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", path, err)
	}
	return nil
}

// imageLanguages lists the image languages to request: the request
// language, Chinese, English, and untagged images.
func imageLanguages(language string) string {
	langs := []string{"zh", "en", "null"}
	if lang, _, _ := strings.Cut(language, "-"); lang != "" && lang != "zh" && lang != "en" {
		langs = append([]string{lang}, langs...)
	}
	return strings.Join(langs, ",")
}

// ImageURL joins an image base URL and a TMDB file path.
func ImageURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
