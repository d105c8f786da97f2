// Package httpx provides the shared HTTP client (User-Agent rotation and
// bounded retries for replayable requests) and the in-memory artwork
// downloader.
package httpx
