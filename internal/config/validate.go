package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateSearchAssist(); err != nil {
		return err
	}
	if err := c.validateArtwork(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if c.NotificationsEnabled() {
		if err := validateURL("notifications.ntfy_topic", c.Notifications.NtfyTopic); err != nil {
			return err
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'metascraper config init')", defaultPath)
	}
	for key, value := range map[string]string{
		"tmdb.base_url":       c.TMDB.BaseURL,
		"tmdb.image_base_url": c.TMDB.ImageBaseURL,
		"omdb.base_url":       c.OMDb.BaseURL,
		"llm.base_url":        c.LLM.BaseURL,
	} {
		if err := validateURL(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSearchAssist() error {
	switch c.SearchAssist.Mode {
	case SearchModeAPI:
		if c.SearchAssist.APIKey == "" || c.SearchAssist.EngineID == "" {
			return errors.New("search_assist.api_key and search_assist.engine_id must be set when search_assist.mode is \"api\" (or set GOOGLE_API_KEY and GOOGLE_CSE_ID)")
		}
	case SearchModeCrawl, SearchModeAuto:
	default:
		return fmt.Errorf("search_assist.mode %q is not one of api, crawl, auto", c.SearchAssist.Mode)
	}
	return nil
}

func (c *Config) validateArtwork() error {
	return ensurePositiveMap(map[string]int{
		"artwork.workers":  c.Artwork.Workers,
		"artwork.max_cast": c.Artwork.MaxCast,
	})
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendSQLite:
		return nil
	default:
		return fmt.Errorf("cache.backend %q is not one of file, sqlite", c.Cache.Backend)
	}
}

func validateURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
