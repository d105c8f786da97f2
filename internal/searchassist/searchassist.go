package searchassist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"metascraper/internal/config"
	"metascraper/internal/httpx"
	"metascraper/internal/logging"
)

// ErrBlocked means the search page was served without results, usually a
// script-only or consent page.
var ErrBlocked = errors.New("search page blocked")

// Hit is one web search result.
type Hit struct {
	URL     string
	Title   string
	Snippet string
}

// Settings selects the backend and credentials.
type Settings struct {
	Mode       string
	APIKey     string
	EngineID   string
	APIURL     string
	CrawlURL   string
	MaxResults int
}

// Client finds catalog pages on the web for queries the catalog itself
// could not match.
type Client struct {
	settings   Settings
	httpClient *http.Client
	logger     *slog.Logger
}

// FromConfig builds Settings from the [search_assist] section.
func FromConfig(cfg *config.Config) Settings {
	sa := cfg.SearchAssist
	return Settings{
		Mode:       sa.Mode,
		APIKey:     sa.APIKey,
		EngineID:   sa.EngineID,
		APIURL:     sa.APIURL,
		CrawlURL:   sa.CrawlURL,
		MaxResults: 10,
	}
}

// New creates a client. A nil httpClient selects httpx.NewClient.
func New(settings Settings, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	switch settings.Mode {
	case "", config.SearchModeAuto:
		settings.Mode = config.SearchModeAuto
	case config.SearchModeAPI:
		if settings.APIKey == "" || settings.EngineID == "" {
			return nil, errors.New("search assist api mode requires api_key and engine_id")
		}
	case config.SearchModeCrawl:
	default:
		return nil, fmt.Errorf("unknown search assist mode %q", settings.Mode)
	}
	if settings.MaxResults <= 0 || settings.MaxResults > 10 {
		settings.MaxResults = 10
	}
	if httpClient == nil {
		httpClient = httpx.NewClient(0)
	}
	return &Client{
		settings:   settings,
		httpClient: httpClient,
		logger:     logging.NewComponentLogger(logger, "search_assist"),
	}, nil
}

// Mode reports the backend that Find will use.
func (c *Client) Mode() string {
	if c.settings.Mode == config.SearchModeAuto {
		if c.settings.APIKey != "" && c.settings.EngineID != "" {
			return config.SearchModeAPI
		}
		return config.SearchModeCrawl
	}
	return c.settings.Mode
}

// Find searches the web for catalog pages about query.
func (c *Client) Find(ctx context.Context, query string) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	mode := c.Mode()
	c.logger.Debug("search assist query",
		logging.String("mode", mode),
		logging.String("query", query))
	if mode == config.SearchModeAPI {
		return c.findAPI(ctx, query)
	}
	return c.findCrawl(ctx, query)
}

type apiResponse struct {
	Items []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) findAPI(ctx context.Context, query string) ([]Hit, error) {
	params := url.Values{}
	params.Set("key", c.settings.APIKey)
	params.Set("cx", c.settings.EngineID)
	params.Set("q", query+" tmdb site:themoviedb.org")
	params.Set("num", strconv.Itoa(c.settings.MaxResults))

	body, err := c.fetch(ctx, c.settings.APIURL, params)
	if err != nil {
		return nil, err
	}
	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("search api error %d: %s", payload.Error.Code, payload.Error.Message)
	}
	hits := make([]Hit, 0, len(payload.Items))
	for _, item := range payload.Items {
		hits = append(hits, Hit{URL: item.Link, Title: item.Title, Snippet: item.Snippet})
	}
	return hits, nil
}

func (c *Client) findCrawl(ctx context.Context, query string) ([]Hit, error) {
	params := url.Values{}
	params.Set("q", query+" tmdb")
	params.Set("num", strconv.Itoa(c.settings.MaxResults))
	params.Set("hl", "en")

	body, err := c.fetch(ctx, c.settings.CrawlURL, params)
	if err != nil {
		return nil, err
	}
	hits, err := ParseResults(body)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 && blocked(body) {
		return nil, ErrBlocked
	}
	return hits, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	u.RawQuery = params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search returned %d", resp.StatusCode)
	}
	return body, nil
}

// ParseResults extracts result links from a search results page. Redirect
// links of the form /url?q=<target> are unwrapped; links back to the search
// engine itself are dropped.
func ParseResults(html []byte) ([]Hit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	var hits []Hit
	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		target := unwrap(href)
		if target == "" {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		title := normSpace(a.Find("h3").First().Text())
		if title == "" {
			title = normSpace(a.Text())
		}
		snippet := normSpace(a.Closest("div").Parent().Text())
		hits = append(hits, Hit{URL: target, Title: title, Snippet: snippet})
	})
	return hits, nil
}

func unwrap(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(u.Host), "google.") {
		return ""
	}
	return href
}

func blocked(html []byte) bool {
	s := string(html)
	return strings.Contains(s, "<noscript>") || strings.Contains(s, "enablejs")
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
