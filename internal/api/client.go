// Package api implements the remote quantum job API client: circuit
// submission, status polling until a terminal state, and result extraction.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	jobPath            = "job"
	defaultHTTPTimeout = 60 * time.Second

	// DefaultBaseURL is the production job API endpoint.
	DefaultBaseURL = "https://qapi.honeywell.com/v1"
)

// TokenSource supplies a currently-valid bearer token for each request.
// The credential manager implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TransportError reports a non-2xx HTTP response on submit or poll.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("api: request failed: %d %s", e.StatusCode, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to the remote job API. Requests fetch a fresh bearer token
// from the token source every time, so long poll loops survive token expiry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource

	// used for mock test
	doJSONRequestFunc func(ctx context.Context, method, url string, payload any) (*http.Response, []byte, error)
}

// NewClient constructs a job API client. baseURL falls back to
// DefaultBaseURL when empty.
func NewClient(baseURL string, tokens TokenSource) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("api: token source is required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		tokens:     tokens,
	}, nil
}

// BaseURL returns the resolved API base.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) jobURL(jobID string) string {
	url := c.baseURL + "/" + jobPath
	if jobID != "" {
		url += "/" + jobID
	}
	return url
}

func (c *Client) doJSONRequest(ctx context.Context, method, url string, payload any) (*http.Response, []byte, error) {
	if c.doJSONRequestFunc != nil {
		return c.doJSONRequestFunc(ctx, method, url, payload)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, nil, err
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, errors.Wrap(err, "encode request payload failed")
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "build request failed")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s %s failed", method, url)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, errors.Wrap(err, "read response body failed")
	}
	return resp, raw, nil
}

func checkStatus(resp *http.Response, raw []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body := strings.TrimSpace(string(raw))
	if len(body) > 512 {
		body = body[:512]
	}
	return &TransportError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       body,
	}
}
