package esb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

// Client talks to the enterprise service bus with basic auth. All internal
// upstreams (post office directory, auth service) ride on it.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// Response carries the raw upstream reply.
type Response struct {
	StatusCode int
	Body       []byte
}

func NewClient(cfg config.ESB) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		username: cfg.ClientID,
		password: cfg.ClientSecret,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// NewClientWithHTTP wires a custom transport, mainly for tests.
func NewClientWithHTTP(baseURL, username, password string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, username: username, password: password, http: httpClient}
}

// Do issues a request against the bus. The path is joined to the base URL;
// headers are applied on top of the basic auth credentials.
func (c *Client) Do(ctx context.Context, method, path string, headers map[string]string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building esb request: %w", err)
	}

	req.SetBasicAuth(c.username, c.password)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "esb request failed")
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "reading esb response")
	}

	return &Response{StatusCode: res.StatusCode, Body: payload}, nil
}

// Get is a convenience wrapper for header-only GET calls.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, headers, nil)
}
