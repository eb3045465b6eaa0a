// Package mediafetch downloads image parts that carry only a URL, for consumers whose wire format
// requires inline bytes (MCP image content, Anthropic base64 sources).
package mediafetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skosovsky/promptreg"
)

const (
	// DefaultMaxBodySize is the default limit for media download (10 MiB).
	DefaultMaxBodySize = 10 << 20
)

var (
	// ErrUnsafeScheme is returned when the URL scheme is not https.
	ErrUnsafeScheme = errors.New("mediafetch: only https scheme is allowed")
	// ErrBodyTooLarge is returned when the response exceeds the size limit.
	ErrBodyTooLarge = errors.New("mediafetch: response body exceeds size limit")
	// ErrUnsupportedType is returned when Content-Type is not image/*.
	ErrUnsupportedType = errors.New("mediafetch: unsupported content type")
	// ErrStatus is returned for any non-200 response.
	ErrStatus = errors.New("mediafetch: unexpected HTTP status")
)

const allowedImagePrefix = "image/"

// Fetcher downloads images over https with a size limit and MIME check. Safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client. If c is nil, the default client is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxBytes sets the download limit. Values <= 0 keep DefaultMaxBodySize.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// New returns a Fetcher with a 30s client timeout and DefaultMaxBodySize.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchImage downloads rawURL and returns its bytes and media type (parameters stripped).
// Only https is allowed.
func (f *Fetcher) FetchImage(ctx context.Context, rawURL string) (data []byte, contentType string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("mediafetch: parse URL: %w", err)
	}
	if u.Scheme != "https" {
		return nil, "", ErrUnsafeScheme
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("mediafetch: new request: %w", err)
	}
	resp, err := f.client.Do(req) // #nosec G704 -- URL comes from a registered prompt, scheme restricted to https
	if err != nil {
		return nil, "", fmt.Errorf("mediafetch: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	contentType = resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if contentType != "" && !strings.HasPrefix(contentType, allowedImagePrefix) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	data, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("mediafetch: read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", ErrBodyTooLarge
	}
	return data, contentType, nil
}

// Resolve returns img with Data filled in. Parts that already carry data are returned unchanged.
// A declared MIMEType wins over the server's Content-Type.
func (f *Fetcher) Resolve(ctx context.Context, img promptreg.ImagePart) (promptreg.ImagePart, error) {
	if len(img.Data) > 0 {
		return img, nil
	}
	if img.URL == "" {
		return img, fmt.Errorf("mediafetch: image part has neither data nor URL")
	}
	data, ct, err := f.FetchImage(ctx, img.URL)
	if err != nil {
		return img, err
	}
	img.Data = data
	if img.MIMEType == "" {
		img.MIMEType = ct
	}
	return img, nil
}
