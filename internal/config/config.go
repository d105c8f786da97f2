package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	ImageBaseURL      string  `toml:"image_base_url"`
	Language          string  `toml:"language"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	CacheTTLHours     int     `toml:"cache_ttl_hours"`
}

// OMDb contains configuration for the secondary ratings source. An empty key
// disables enrichment.
type OMDb struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	FailureThreshold int    `toml:"failure_threshold"`
	CooldownSeconds  int    `toml:"cooldown_seconds"`
}

// SearchAssist configures the web search fallback used when the catalog
// search comes back empty.
type SearchAssist struct {
	Mode     string `toml:"mode"`
	APIKey   string `toml:"api_key"`
	EngineID string `toml:"engine_id"`
	APIURL   string `toml:"api_url"`
	CrawlURL string `toml:"crawl_url"`
	MaxIDs   int    `toml:"max_ids"`
}

// LLM contains the text generation connection settings.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`
}

// Translation controls the zh locale fill.
type Translation struct {
	Enabled         bool `toml:"enabled"`
	TagCacheTTLDays int  `toml:"tag_cache_ttl_days"`
}

// Artwork contains the artwork plan policy and download limits.
type Artwork struct {
	Workers       int   `toml:"workers"`
	MaxBackdrops  int   `toml:"max_backdrops"`
	MaxStills     int   `toml:"max_stills"`
	MaxCast       int   `toml:"max_cast"`
	ActorThumbs   bool  `toml:"actor_thumbs"`
	EpisodeThumbs bool  `toml:"episode_thumbs"`
	SkipExisting  bool  `toml:"skip_existing"`
	MaxBytes      int64 `toml:"max_bytes"`
}

// Cache selects the response cache backend.
type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Backend  string `toml:"backend"`
	TTLHours int    `toml:"ttl_hours"`
}

// Pipeline contains run-level settings.
type Pipeline struct {
	RunTimeoutSeconds int  `toml:"run_timeout_seconds"`
	AidedSearch       bool `toml:"aided_search"`
}

// Notifications configures ntfy delivery. An empty topic disables it.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	NotifyOnSuccess       bool   `toml:"notify_on_success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for metascraper.
//
// Configuration sections by subsystem:
//   - Paths: output, cache, and log directories
//   - TMDB: primary catalog lookups and image base URL
//   - OMDb: secondary ratings and credits
//   - SearchAssist: web search fallback for empty catalog searches
//   - LLM: text generation for translation and taglines
//   - Translation: zh locale fill toggles
//   - Artwork: artwork plan and download limits
//   - Cache: response cache backend
//   - Pipeline: run timeout and aided search default
//   - Notifications: ntfy run and batch notices
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	OMDb          OMDb          `toml:"omdb"`
	SearchAssist  SearchAssist  `toml:"search_assist"`
	LLM           LLM           `toml:"llm"`
	Translation   Translation   `toml:"translation"`
	Artwork       Artwork       `toml:"artwork"`
	Cache         Cache         `toml:"cache"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("metascraper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories. The output
// directory is created per item by the writer so a missing mount surfaces as
// a write error rather than a config error.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "metascraper")
	}
	return "~/.cache/metascraper"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved text generation settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	Temperature    float64
}

// GetLLM returns the text generation connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
		Temperature:    c.LLM.Temperature,
	}
}

// LLMEnabled reports whether a text generator can be constructed.
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

// NotificationsEnabled reports whether an ntfy topic is configured.
func (c *Config) NotificationsEnabled() bool {
	return strings.TrimSpace(c.Notifications.NtfyTopic) != ""
}

// OMDbEnabled reports whether the secondary source is configured.
func (c *Config) OMDbEnabled() bool {
	return strings.TrimSpace(c.OMDb.APIKey) != ""
}

// SearchAssistEnabled reports whether any search assist mode can run. The
// crawl mode needs no credentials.
func (c *Config) SearchAssistEnabled() bool {
	switch c.SearchAssist.Mode {
	case SearchModeAPI:
		return c.SearchAssist.APIKey != "" && c.SearchAssist.EngineID != ""
	case SearchModeCrawl, SearchModeAuto:
		return true
	default:
		return false
	}
}
