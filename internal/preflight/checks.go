package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"metascraper/internal/config"
	"metascraper/internal/fileutil"
	"metascraper/internal/omdb"
	"metascraper/internal/services/llm"
	"metascraper/internal/tmdb"
)

// checkIMDbID is a stable title used to exercise the OMDb key.
const checkIMDbID = "tt0111161"

// CheckTMDB verifies that the catalog API accepts the configured key.
func CheckTMDB(ctx context.Context, cfg *config.Config, client *http.Client) Result {
	const name = "TMDB"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithHTTPClient(client))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := c.Ping(checkCtx); err != nil {
		var status *tmdb.StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusUnauthorized {
			return Result{Name: name, Detail: "auth failed (invalid api key)"}
		}
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckOMDb verifies the secondary source key with a single lookup.
func CheckOMDb(ctx context.Context, cfg *config.Config, client *http.Client) Result {
	const name = "OMDb"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL, omdb.WithHTTPClient(client))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if _, err := c.Lookup(checkCtx, checkIMDbID); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig, client *http.Client) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c := llm.NewClient(llm.Config(cfg), llm.WithRetryMaxAttempts(1), llm.WithHTTPClient(client))
	if err := c.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputDirectory passes when the output directory, or the ancestor
// it will be created under, is writable.
func CheckOutputDirectory(path string) Result {
	const name = "Output directory"
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	if err := fileutil.CheckWritable(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	return err.Error()
}
