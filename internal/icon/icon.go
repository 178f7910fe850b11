package icon

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Signature is the 8-byte header every PNG file starts with.
var Signature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const (
	defaultTimeout = 30 * time.Second
	// MaxBytes caps the icon download.
	MaxBytes = 8 << 20
)

// Fetcher downloads an icon.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPDoer describes the HTTP client used by HTTPFetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch icon %s: http %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPFetcher fetches icons over HTTP.
type HTTPFetcher struct {
	client  HTTPDoer
	timeout time.Duration
}

// NewHTTPFetcher returns a fetcher using client, or a default client when
// client is nil. A non-positive timeout selects the default.
func NewHTTPFetcher(client HTTPDoer, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{client: client, timeout: timeout}
}

// Fetch downloads rawURL. Any status outside 200-299 yields *StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build icon request: %w", err)
	}
	req.Header.Set("Accept", "image/png")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch icon (timeout=%s): %w", f.timeout, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read icon: %w", err)
	}
	if len(data) > MaxBytes {
		return nil, fmt.Errorf("icon exceeds %d bytes", MaxBytes)
	}
	return data, nil
}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, Signature)
}

// IsRemoteURL reports whether value is an absolute http or https URL with a
// host, the only form of the icon field that triggers a download.
func IsRemoteURL(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
