package preflight

import (
	"context"
	"net/http"

	"metascraper/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Skipped marks optional services that are not configured.
	Skipped bool
	Detail  string
}

// RunAll executes the directory checks and, for each configured service, a
// live credential check. client may be nil.
func RunAll(ctx context.Context, cfg *config.Config, client *http.Client) []Result {
	if cfg == nil {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}

	results := []Result{
		CheckOutputDirectory(cfg.Paths.OutputDir),
	}
	if cfg.Cache.Enabled {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckTMDB(ctx, cfg, client))

	if cfg.OMDbEnabled() {
		results = append(results, CheckOMDb(ctx, cfg, client))
	} else {
		results = append(results, Result{Name: "OMDb", Skipped: true, Detail: "omdb.api_key not set"})
	}

	if cfg.LLMEnabled() {
		results = append(results, CheckLLM(ctx, "LLM", cfg.GetLLM(), client))
	} else {
		results = append(results, Result{Name: "LLM", Skipped: true, Detail: "llm.api_key not set"})
	}
	return results
}

// Failed counts results that neither passed nor were skipped.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			n++
		}
	}
	return n
}
