package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/justapithecus/adit/iox"
)

// DefaultHTTPTimeout bounds a single request. A stalled request counts
// as transient and is retried by the Fetcher.
const DefaultHTTPTimeout = 60 * time.Second

// HTTPSource reads resources relative to a base URL.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource creates an HTTP source for resources under baseURL.
// baseURL is treated as a directory: resource names resolve beneath it.
func NewHTTPSource(baseURL string) (*HTTPSource, error) {
	if baseURL == "" {
		return nil, errors.New("http source requires a base URL")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("http source: invalid base URL: %w", err)
	}

	return &HTTPSource{
		base:   base,
		client: &http.Client{Timeout: DefaultHTTPTimeout},
	}, nil
}

// Read fetches the resource, requesting `Range: bytes=<offset>-` when
// offset is positive. A 206 returns exactly the requested slice; a 200
// means the server ignored the range, so the first offset bytes are
// discarded locally. Any other status is a permanent *StatusError.
func (s *HTTPSource) Read(ctx context.Context, name string, offset int64) (string, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return "", fmt.Errorf("http source: invalid resource name %q: %w", name, err)
	}
	target := s.base.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("http source: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// The request never completed: transient.
		return "", fmt.Errorf("http source: %s: %w", name, err)
	}
	defer iox.DrainClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusPartialContent:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("http source: %s: truncated body: %w", name, err)
		}
		return string(body), nil

	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("http source: %s: truncated body: %w", name, err)
		}
		if offset >= int64(len(body)) {
			return "", nil
		}
		return string(body[offset:]), nil

	case http.StatusRequestedRangeNotSatisfiable:
		// Offset at or past end of resource: nothing new to read.
		return "", nil

	default:
		return "", &StatusError{Resource: name, Code: resp.StatusCode}
	}
}
