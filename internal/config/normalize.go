package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeOMDb()
	c.normalizeSearchAssist()
	c.normalizeLLM()
	c.normalizeArtwork()
	c.normalizeCache()
	c.normalizeLogging()
	if c.Translation.TagCacheTTLDays <= 0 {
		c.Translation.TagCacheTTLDays = defaultTagCacheTTLDays
	}
	if c.Pipeline.RunTimeoutSeconds < 0 {
		c.Pipeline.RunTimeoutSeconds = 0
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(trimOr(c.TMDB.BaseURL, defaultTMDBBaseURL), "/")
	c.TMDB.ImageBaseURL = strings.TrimRight(trimOr(c.TMDB.ImageBaseURL, defaultTMDBImageBaseURL), "/")
	c.TMDB.Language = trimOr(c.TMDB.Language, defaultTMDBLanguage)
	if c.TMDB.RequestsPerSecond <= 0 {
		c.TMDB.RequestsPerSecond = defaultTMDBRPS
	}
	if c.TMDB.Burst <= 0 {
		c.TMDB.Burst = defaultTMDBBurst
	}
	if c.TMDB.CacheTTLHours < 0 {
		c.TMDB.CacheTTLHours = 0
	}
}

func (c *Config) normalizeOMDb() {
	c.OMDb.APIKey = strings.TrimSpace(c.OMDb.APIKey)
	if c.OMDb.APIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDb.APIKey = strings.TrimSpace(value)
		}
	}
	c.OMDb.BaseURL = trimOr(c.OMDb.BaseURL, defaultOMDbBaseURL)
	if c.OMDb.FailureThreshold <= 0 {
		c.OMDb.FailureThreshold = defaultOMDbFailureThreshold
	}
	if c.OMDb.CooldownSeconds <= 0 {
		c.OMDb.CooldownSeconds = defaultOMDbCooldownSeconds
	}
}

func (c *Config) normalizeSearchAssist() {
	c.SearchAssist.Mode = strings.ToLower(trimOr(c.SearchAssist.Mode, SearchModeAuto))
	c.SearchAssist.APIKey = strings.TrimSpace(c.SearchAssist.APIKey)
	if c.SearchAssist.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			c.SearchAssist.APIKey = strings.TrimSpace(value)
		}
	}
	c.SearchAssist.EngineID = strings.TrimSpace(c.SearchAssist.EngineID)
	if c.SearchAssist.EngineID == "" {
		if value, ok := os.LookupEnv("GOOGLE_CSE_ID"); ok {
			c.SearchAssist.EngineID = strings.TrimSpace(value)
		}
	}
	c.SearchAssist.APIURL = trimOr(c.SearchAssist.APIURL, defaultSearchAPIURL)
	c.SearchAssist.CrawlURL = trimOr(c.SearchAssist.CrawlURL, defaultSearchCrawlURL)
	if c.SearchAssist.MaxIDs <= 0 {
		c.SearchAssist.MaxIDs = defaultSearchMaxIDs
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = trimOr(c.LLM.BaseURL, defaultLLMBaseURL)
	c.LLM.Model = trimOr(c.LLM.Model, defaultLLMModel)
	c.LLM.Referer = trimOr(c.LLM.Referer, defaultLLMReferer)
	c.LLM.Title = trimOr(c.LLM.Title, defaultLLMTitle)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeArtwork() {
	if c.Artwork.Workers <= 0 {
		c.Artwork.Workers = defaultArtworkWorkers
	}
	if c.Artwork.MaxBackdrops < 0 {
		c.Artwork.MaxBackdrops = 0
	}
	if c.Artwork.MaxStills < 0 {
		c.Artwork.MaxStills = 0
	}
	if c.Artwork.MaxCast <= 0 {
		c.Artwork.MaxCast = defaultMaxCast
	}
	if c.Artwork.MaxBytes <= 0 {
		c.Artwork.MaxBytes = defaultArtworkMaxBytes
	}
}

func (c *Config) normalizeCache() {
	c.Cache.Backend = strings.ToLower(trimOr(c.Cache.Backend, defaultCacheBackend))
	if c.Cache.TTLHours < 0 {
		c.Cache.TTLHours = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
