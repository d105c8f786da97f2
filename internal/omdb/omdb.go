package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"metascraper/internal/logging"
	"metascraper/internal/media"
)

// ErrNoResult is returned when OMDb answers Response=False.
var ErrNoResult = errors.New("omdb: no result")

// RatingEntry is one third-party rating as OMDb reports it.
type RatingEntry struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Record is the OMDb title payload. Missing values arrive as "N/A".
type Record struct {
	Title      string        `json:"Title"`
	Year       string        `json:"Year"`
	Rated      string        `json:"Rated"`
	Released   string        `json:"Released"`
	Runtime    string        `json:"Runtime"`
	Genre      string        `json:"Genre"`
	Director   string        `json:"Director"`
	Writer     string        `json:"Writer"`
	Actors     string        `json:"Actors"`
	Plot       string        `json:"Plot"`
	Language   string        `json:"Language"`
	Country    string        `json:"Country"`
	Awards     string        `json:"Awards"`
	Poster     string        `json:"Poster"`
	Ratings    []RatingEntry `json:"Ratings"`
	Metascore  string        `json:"Metascore"`
	IMDbRating string        `json:"imdbRating"`
	IMDbVotes  string        `json:"imdbVotes"`
	IMDbID     string        `json:"imdbID"`
	Type       string        `json:"Type"`
	Response   string        `json:"Response"`
	Error      string        `json:"Error"`
}

// Client looks up titles by IMDb id behind a circuit breaker, so a failing
// OMDb stops being called for the cooldown period.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Record]
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	threshold  uint32
	cooldown   time.Duration
	logger     *slog.Logger
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBreaker sets the consecutive-failure threshold and open-state cooldown.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(o *options) {
		if threshold > 0 {
			o.threshold = uint32(threshold)
		}
		if cooldown > 0 {
			o.cooldown = cooldown
		}
	}
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	o := options{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		threshold:  3,
		cooldown:   time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.NewComponentLogger(o.logger, "omdb")

	settings := gobreaker.Settings{
		Name:        "omdb",
		MaxRequests: 1,
		Timeout:     o.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoResult) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("omdb circuit state changed",
				logging.String(logging.FieldEventType, "omdb_breaker_state"),
				logging.String("from", from.String()),
				logging.String("to", to.String()))
		},
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: o.httpClient,
		breaker:    gobreaker.NewCircuitBreaker[*Record](settings),
		logger:     logger,
	}, nil
}

// Lookup fetches the full record for an IMDb id.
func (c *Client) Lookup(ctx context.Context, imdbID string) (*Record, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	return c.breaker.Execute(func() (*Record, error) {
		return c.fetch(ctx, imdbID)
	})
}

// BreakerState reports the circuit state for diagnostics.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// IsOpen reports whether err came from an open circuit.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (c *Client) fetch(ctx context.Context, imdbID string) (*Record, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("i", imdbID)
	params.Set("plot", "full")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload Record
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode omdb response: %w", err)
	}
	if !strings.EqualFold(payload.Response, "True") {
		return nil, fmt.Errorf("%w: %s", ErrNoResult, clean(payload.Error))
	}
	return &payload, nil
}

// ActorNames splits the Actors field.
func (r *Record) ActorNames() []string { return splitNames(r.Actors) }

// DirectorNames splits the Director field.
func (r *Record) DirectorNames() []string { return splitNames(r.Director) }

// WriterNames splits the Writer field, dropping role notes such as
// "(screenplay)".
func (r *Record) WriterNames() []string { return splitNames(r.Writer) }

// PlotText returns the plot or an empty string for N/A.
func (r *Record) PlotText() string { return clean(r.Plot) }

// Certification returns the Rated value or an empty string for N/A and
// "Not Rated".
func (r *Record) Certification() string {
	rated := clean(r.Rated)
	if strings.EqualFold(rated, "Not Rated") || strings.EqualFold(rated, "Unrated") {
		return ""
	}
	return rated
}

// ParsedRatings converts OMDb ratings to source-keyed scores:
// imdb (x/10 with votes), rottentomatoes (x/100), metacritic (x/100).
func (r *Record) ParsedRatings() map[string]media.Rating {
	out := map[string]media.Rating{}
	if score, ok := parseFloat(r.IMDbRating); ok {
		out[media.RatingIMDb] = media.Rating{Score: score, Max: 10, Votes: parseVotes(r.IMDbVotes)}
	}
	for _, entry := range r.Ratings {
		value := clean(entry.Value)
		switch entry.Source {
		case "Internet Movie Database":
			if _, exists := out[media.RatingIMDb]; exists {
				continue
			}
			if score, maxScore, ok := parseFraction(value); ok {
				out[media.RatingIMDb] = media.Rating{Score: score, Max: maxScore, Votes: parseVotes(r.IMDbVotes)}
			}
		case "Rotten Tomatoes":
			if score, ok := parseFloat(strings.TrimSuffix(value, "%")); ok {
				out[media.RatingRottenTomatoes] = media.Rating{Score: score, Max: 100}
			}
		case "Metacritic":
			if score, maxScore, ok := parseFraction(value); ok {
				out[media.RatingMetacritic] = media.Rating{Score: score, Max: maxScore}
			}
		}
	}
	if _, exists := out[media.RatingMetacritic]; !exists {
		if score, ok := parseFloat(r.Metascore); ok {
			out[media.RatingMetacritic] = media.Rating{Score: score, Max: 100}
		}
	}
	return out
}

func clean(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func splitNames(value string) []string {
	value = clean(value)
	if value == "" {
		return nil
	}
	var out []string
	seen := map[string]struct{}{}
	for _, part := range strings.Split(value, ",") {
		if i := strings.Index(part, "("); i >= 0 {
			part = part[:i]
		}
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func parseFloat(value string) (float64, bool) {
	value = clean(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	return f, err == nil
}

func parseFraction(value string) (float64, float64, bool) {
	num, den, ok := strings.Cut(value, "/")
	if !ok {
		return 0, 0, false
	}
	score, ok1 := parseFloat(num)
	maxScore, ok2 := parseFloat(den)
	if !ok1 || !ok2 || maxScore <= 0 {
		return 0, 0, false
	}
	return score, maxScore, true
}

func parseVotes(value string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(clean(value), ",", ""))
	if err != nil {
		return 0
	}
	return n
}
