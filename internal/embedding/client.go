// Package embedding talks to an external text-embedding service.
//
// The service contract is a single endpoint:
//
//	POST {url} {"input": ["text", ...]} -> {"embeddings": [[0.1, ...], ...]}
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrProvider marks failures of the embedding service itself: transport
// errors, non-2xx responses and malformed bodies.
var ErrProvider = errors.New("embedding provider error")

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

// Provider turns texts into dense vectors, one per input, in order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Client is the HTTP Provider.
type Client struct {
	url        string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero means no client-side timeout;
// callers are expected to bound requests through the context instead.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the service at url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{url: url, httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the configured endpoint.
func (c *Client) URL() string { return c.url }

type request struct {
	Input []string `json:"input"`
}

type response struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed sends one request for all texts. There is no retry: a failed call
// fails the assessment that needed it.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	body, err := json.Marshal(request{Input: texts})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding request", goerr.V("url", c.url))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(ErrProvider, "embedding request failed",
			goerr.V("url", c.url), goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, goerr.Wrap(ErrProvider, "embedding service returned error status",
			goerr.V("url", c.url), goerr.V("status", resp.StatusCode), goerr.V("body", string(snippet)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, goerr.Wrap(ErrProvider, "failed to decode embedding response",
			goerr.V("url", c.url), goerr.V("cause", err.Error()))
	}
	if len(out.Embeddings) != len(texts) {
		return nil, goerr.Wrap(ErrProvider, "embedding count does not match input count",
			goerr.V("want", len(texts)), goerr.V("got", len(out.Embeddings)))
	}
	return out.Embeddings, nil
}
