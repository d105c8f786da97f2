package config

import "strings"

const (
	defaultConfigPath = "~/.config/metascraper/config.toml"
	defaultOutputDir  = "~/media/metascraper"
	defaultLogDir     = "~/.local/share/metascraper/logs"

	defaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL = "https://image.tmdb.org/t/p/original"
	defaultTMDBLanguage     = "en-US"
	defaultTMDBRPS          = 20
	defaultTMDBBurst        = 5
	defaultTMDBCacheTTL     = 72

	defaultOMDbBaseURL          = "https://www.omdbapi.com/"
	defaultOMDbFailureThreshold = 3
	defaultOMDbCooldownSeconds  = 60

	defaultSearchAPIURL   = "https://www.googleapis.com/customsearch/v1"
	defaultSearchCrawlURL = "https://www.google.com/search"
	defaultSearchMaxIDs   = 3

	defaultLLMBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel          = "gpt-4o-mini"
	defaultLLMReferer        = "https://github.com/metascraper/metascraper"
	defaultLLMTitle          = "metascraper"
	defaultLLMTimeoutSeconds = 60
	defaultLLMTemperature    = 0.1

	defaultTagCacheTTLDays = 30

	defaultArtworkWorkers  = 8
	defaultMaxBackdrops    = 3
	defaultMaxStills       = 10
	defaultMaxCast         = 20
	defaultArtworkMaxBytes = 20 << 20

	defaultCacheBackend  = CacheBackendFile
	defaultCacheTTLHours = 72

	defaultRunTimeoutSeconds = 600

	defaultNtfyTimeoutSeconds = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Search assist modes.
const (
	SearchModeAPI   = "api"
	SearchModeCrawl = "crawl"
	SearchModeAuto  = "auto"
)

// Cache backends.
const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			CacheDir:  defaultCacheDir(),
			LogDir:    defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			ImageBaseURL:      defaultTMDBImageBaseURL,
			Language:          defaultTMDBLanguage,
			RequestsPerSecond: defaultTMDBRPS,
			Burst:             defaultTMDBBurst,
			CacheTTLHours:     defaultTMDBCacheTTL,
		},
		OMDb: OMDb{
			BaseURL:          defaultOMDbBaseURL,
			FailureThreshold: defaultOMDbFailureThreshold,
			CooldownSeconds:  defaultOMDbCooldownSeconds,
		},
		SearchAssist: SearchAssist{
			Mode:     SearchModeAuto,
			APIURL:   defaultSearchAPIURL,
			CrawlURL: defaultSearchCrawlURL,
			MaxIDs:   defaultSearchMaxIDs,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			Temperature:    defaultLLMTemperature,
		},
		Translation: Translation{
			Enabled:         true,
			TagCacheTTLDays: defaultTagCacheTTLDays,
		},
		Artwork: Artwork{
			Workers:       defaultArtworkWorkers,
			MaxBackdrops:  defaultMaxBackdrops,
			MaxStills:     defaultMaxStills,
			MaxCast:       defaultMaxCast,
			ActorThumbs:   true,
			EpisodeThumbs: true,
			SkipExisting:  true,
			MaxBytes:      defaultArtworkMaxBytes,
		},
		Cache: Cache{
			Enabled:  true,
			Backend:  defaultCacheBackend,
			TTLHours: defaultCacheTTLHours,
		},
		Pipeline: Pipeline{
			RunTimeoutSeconds: defaultRunTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func trimOr(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}
