package remoteregistry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/promptreg"
)

var (
	_ Fetcher = (*HTTPFetcher)(nil)
	_ Lister  = (*HTTPFetcher)(nil)
)

const (
	// IndexFile is the document under the base URL that lists the served prompt ids.
	// {base}/index.yml is tried when it is missing.
	IndexFile = "index.yaml"

	// maxBodySize caps manifest and index documents at 1 MiB.
	maxBodySize  = 1 << 20
	userAgent    = "promptreg-remote-registry/1.0"
	fetchTimeout = 30 * time.Second
)

// errMissing marks a 404 for one candidate document; callers try the next name.
var errMissing = errors.New("remoteregistry: document missing")

// HTTPFetcher reads prompt manifests from a static HTTP tree:
//
//	{base}/index.yaml   ids served, as a YAML list or under an "ids" key
//	{base}/{id}.yaml    one manifest per id ({id}.yml accepted)
//
// It implements Fetcher and Lister, so Source.Register needs no ids.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
	token  string
}

// HTTPOption configures HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client (30s timeout). nil is ignored.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPFetcher) {
		if c != nil {
			h.client = c
		}
	}
}

// WithAuthToken sends token as a Bearer Authorization header.
func WithAuthToken(token string) HTTPOption {
	return func(h *HTTPFetcher) {
		h.token = token
	}
}

// NewHTTPFetcher returns a fetcher rooted at baseURL, e.g. https://prompts.example.com/v1.
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) (*HTTPFetcher, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remoteregistry: invalid base URL %q", baseURL)
	}
	h := &HTTPFetcher{base: base, client: &http.Client{Timeout: fetchTimeout}}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Fetch returns the manifest for id. A 404 on every candidate name is ErrNotFound.
func (h *HTTPFetcher) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := h.first(ctx, CandidatePaths(id))
	if errors.Is(err, errMissing) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return data, err
}

// ListIDs reads the index document. Ids keep index order; an invalid or repeated id
// fails the whole index.
func (h *HTTPFetcher) ListIDs(ctx context.Context) ([]string, error) {
	data, err := h.first(ctx, []string{IndexFile, "index.yml"})
	if errors.Is(err, errMissing) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h.resolve(IndexFile))
	}
	if err != nil {
		return nil, err
	}
	return parseIndex(data)
}

// Close drops idle keep-alive connections.
func (h *HTTPFetcher) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HTTPFetcher) first(ctx context.Context, names []string) ([]byte, error) {
	for _, name := range names {
		data, err := h.get(ctx, name)
		if errors.Is(err, errMissing) {
			continue
		}
		return data, err
	}
	return nil, errMissing
}

func (h *HTTPFetcher) resolve(name string) string {
	return h.base.JoinPath(name).String()
}

func (h *HTTPFetcher) get(ctx context.Context, name string) ([]byte, error) {
	target := h.resolve(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/yaml, text/yaml, */*")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.client.Do(req) // #nosec G704 -- base URL comes from config, name is a validated id
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errMissing
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %w: %s %s", ErrFetchFailed, ErrHTTPStatus, resp.Status, target)
	}

	data, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFetchFailed, target, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrFetchFailed, target, err)
	}
	return data, nil
}

// parseIndex accepts either a bare YAML sequence of ids or a mapping with an "ids" sequence.
func parseIndex(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidIndex)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	var ids []string
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&ids); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			IDs []string `yaml:"ids"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
		}
		ids = wrapped.IDs
	default:
		return nil, fmt.Errorf("%w: want a list of ids or an ids key (line %d)", ErrInvalidIndex, root.Line)
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %w: %q listed twice", ErrInvalidIndex, promptreg.ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return ids, nil
}
