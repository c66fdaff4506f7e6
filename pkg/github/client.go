package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// maxBodySize limits how much of a response body is read.
const maxBodySize = 10 * 1024 * 1024

// Client queries the GitHub code search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used for GitHub Enterprise and tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client authenticated with the given token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		token:      token,
		userAgent:  "codephoenix",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchCode runs a code search and returns one page of results.
// Pages are 1-based. perPage is clamped to the API maximum.
func (c *Client) SearchCode(ctx context.Context, query string, page, perPage int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	endpoint := c.baseURL + "/search/code?" + params.Encode()

	var result SearchResult
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RateLimits returns the token's current quotas. The call does not count
// against them, so it doubles as a token check.
func (c *Client) RateLimits(ctx context.Context) (*RateLimits, error) {
	var limits RateLimits
	if err := c.get(ctx, c.baseURL+"/rate_limit", &limits); err != nil {
		return nil, err
	}
	return &limits, nil
}

// get performs an authenticated GET and decodes a 2xx JSON body into v.
func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func newStatusError(resp *http.Response, body []byte) *StatusError {
	e := &StatusError{
		StatusCode:         resp.StatusCode,
		Body:               string(body),
		RateLimitRemaining: resp.Header.Get("X-RateLimit-Remaining"),
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		e.kind = ErrUnauthorized
	case http.StatusForbidden, http.StatusTooManyRequests:
		e.kind = ErrRateLimited
	case http.StatusUnprocessableEntity:
		e.kind = ErrInvalidQuery
	}

	return e
}
