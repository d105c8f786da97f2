package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ErrNotImage is returned when a download is not an image.
var ErrNotImage = errors.New("response is not an image")

// ErrEmpty is returned for zero-byte bodies.
var ErrEmpty = errors.New("empty response body")

// ErrTooLarge is returned when the body exceeds the configured limit.
var ErrTooLarge = errors.New("response body exceeds size limit")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// Downloader fetches artwork bytes into memory.
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// NewDownloader returns a downloader; maxBytes <= 0 disables the size limit.
func NewDownloader(client *http.Client, maxBytes int64) *Downloader {
	if client == nil {
		client = NewClient(0)
	}
	return &Downloader{client: client, maxBytes: maxBytes}
}

// Download fetches url and returns its body and media type. Non-2xx
// statuses, non-image content, empty bodies, and bodies over the limit are
// errors.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	reader := io.Reader(resp.Body)
	if d.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, d.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return nil, "", ErrTooLarge
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(http.DetectContentType(data))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: %s", ErrNotImage, contentType)
	}
	return data, contentType, nil
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return mt
}
