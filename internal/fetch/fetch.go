// Package fetch retrieves documents over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodySize caps how much of a response is read.
	maxBodySize = 32 << 20
)

// Document is a fetched response body.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

// StatusError is returned for responses with status 400 or above.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Status)
}

// Client fetches documents.
type Client struct {
	httpClient *http.Client
	maxBody    int64
}

// NewClient creates a client with the given timeout. A zero timeout uses
// the default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBody: maxBodySize,
	}
}

// Get fetches url.
func (c *Client) Get(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html, text/markdown;q=0.9, text/plain;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("fetching %s: response body exceeds %d bytes", url, c.maxBody)
	}

	return &Document{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// IsURL reports whether s names an http or https resource.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
