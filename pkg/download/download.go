// Package download fetches remote renderer resources (OCIO configs, LUT
// archives) to local disk. It wraps HTTP with retry logic and knows how to
// unpack the zip archives most vendors distribute their configs in.
package download

import (
	"archive/zip"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrLixm/picture-lab-lxm/pkg/cache"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/httputil"
	"github.com/MrLixm/picture-lab-lxm/pkg/observability"
)

const httpTimeout = 5 * time.Minute

var (
	// ErrNotFound is returned when the remote resource does not exist.
	ErrNotFound = stderrors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = stderrors.New("network error")
)

// Client downloads files over HTTP with retries and an optional response
// cache. The zero value is not usable; create one with NewClient.
type Client struct {
	http      *http.Client
	headers   map[string]string
	responses *httputil.Cache
	keyer     cache.Keyer
}

// NewClient creates a Client with the given default headers.
// Headers are applied to all requests made through this client.
// Pass nil if no default headers are needed.
func NewClient(headers map[string]string) *Client {
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		headers: headers,
	}
}

// WithCache returns a copy of the client that serves repeat downloads from
// the given response cache instead of the network. Keys are derived through
// keyer so every cache consumer hashes its inputs the same way.
func (c *Client) WithCache(responses *httputil.Cache, keyer cache.Keyer) *Client {
	clone := *c
	clone.responses = responses
	clone.keyer = keyer
	return &clone
}

// File performs an HTTP GET request and streams the response body to dstPath.
// Transient failures (connection errors, 5xx) are retried with backoff.
// The destination file is only created once the request has succeeded.
func (c *Client) File(ctx context.Context, rawURL, dstPath string) error {
	return c.fetch(ctx, c.cacheKey(rawURL, nil), dstPath, func() (io.ReadCloser, error) {
		return c.doRequest(ctx, http.MethodGet, rawURL, nil, nil)
	})
}

// FilePOST performs an HTTP POST request with form-encoded params and streams
// the response body to dstPath. Some vendors (Filmlight's TCAM configs among
// them) only serve their downloads behind a form submission.
func (c *Client) FilePOST(ctx context.Context, rawURL, dstPath string, params url.Values, headers map[string]string) error {
	return c.fetch(ctx, c.cacheKey(rawURL, params), dstPath, func() (io.ReadCloser, error) {
		return c.doRequest(ctx, http.MethodPost, rawURL, strings.NewReader(params.Encode()), headers)
	})
}

// cacheKey returns the response cache key for a request, or "" when the
// client has no cache attached.
func (c *Client) cacheKey(rawURL string, params url.Values) string {
	if c.responses == nil {
		return ""
	}
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	return c.keyer.HTTPKey("download", rawURL)
}

// fetch writes the resource to dstPath, consulting the response cache
// before the network and recording fresh responses in it.
func (c *Client) fetch(ctx context.Context, key, dstPath string, do func() (io.ReadCloser, error)) error {
	if key != "" && c.restoreCached(ctx, key, dstPath) {
		return nil
	}
	err := httputil.RetryWithBackoff(ctx, func() error {
		body, err := do()
		if err != nil {
			return err
		}
		defer body.Close()
		return writeTo(dstPath, body)
	})
	if err != nil {
		return err
	}
	if key != "" {
		c.storeCached(ctx, key, dstPath)
	}
	return nil
}

func (c *Client) restoreCached(ctx context.Context, key, dstPath string) bool {
	var data []byte
	ok, err := c.responses.Get(key, &data)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "http")
		return false
	}
	if writeTo(dstPath, bytes.NewReader(data)) != nil {
		return false
	}
	observability.Cache().OnCacheHit(ctx, "http")
	return true
}

func (c *Client) storeCached(ctx context.Context, key, dstPath string) {
	data, err := os.ReadFile(dstPath)
	if err != nil {
		return
	}
	if c.responses.Set(key, data) == nil {
		observability.Cache().OnCacheSet(ctx, "http", len(data))
	}
}

func (c *Client) doRequest(ctx context.Context, method, rawURL string, payload io.Reader, headers map[string]string) (io.ReadCloser, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, payload)
	if err != nil {
		return nil, err
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	observability.HTTP().OnRequest(ctx, method, req.URL.Host, req.URL.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	observability.HTTP().OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func writeTo(dstPath string, body io.Reader) error {
	f, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dstPath)
		return err
	}
	return f.Close()
}

// ExtractZip unpacks the archive into the directory it is stored in and
// returns that directory. If removeZip is true the archive is deleted after
// a successful extraction. Entries escaping the extraction root are rejected.
func ExtractZip(zipPath string, removeZip bool) (string, error) {
	extractRoot := filepath.Dir(zipPath)

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, entry := range r.File {
		if err := extractEntry(entry, extractRoot); err != nil {
			return "", fmt.Errorf("extracting %q: %w", entry.Name, err)
		}
	}
	r.Close()

	if removeZip {
		if err := os.Remove(zipPath); err != nil {
			return "", err
		}
	}
	return extractRoot, nil
}

func extractEntry(entry *zip.File, root string) error {
	if err := errors.ValidateRelPath(strings.TrimSuffix(entry.Name, "/")); err != nil {
		return err
	}
	dst := filepath.Join(root, entry.Name)
	if !strings.HasPrefix(dst, filepath.Clean(root)+string(os.PathSeparator)) {
		return fmt.Errorf("illegal path %q", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(dst, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	return writeTo(dst, src)
}
