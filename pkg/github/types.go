// Package github provides a minimal client for the GitHub code search API.
package github

import (
	"errors"
	"fmt"
	"time"
)

// DefaultBaseURL is the public GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

// MaxPerPage is the largest page size the search API accepts.
const MaxPerPage = 100

var (
	// ErrRateLimited is returned when the API refuses a request for rate limiting.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidQuery is returned when the API rejects the search query.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrUnauthorized is returned when the API rejects the token.
	ErrUnauthorized = errors.New("bad credentials")
)

// SearchResult is one page of code search results.
type SearchResult struct {
	TotalCount        int        `json:"total_count"`
	IncompleteResults bool       `json:"incomplete_results"`
	Items             []CodeItem `json:"items"`
}

// CodeItem is a file that matched a code search.
type CodeItem struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	HTMLURL    string     `json:"html_url"`
	Repository Repository `json:"repository"`
}

// Repository is the subset of repository fields returned with a code item.
type Repository struct {
	FullName  string    `json:"full_name"`
	HTMLURL   string    `json:"html_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	PushedAt  time.Time `json:"pushed_at,omitzero"`
}

// StatusError reports a non-2xx response from the API.
type StatusError struct {
	StatusCode int
	Body       string

	// RateLimitRemaining is the X-RateLimit-Remaining header, if sent.
	RateLimitRemaining string

	kind error
}

func (e *StatusError) Error() string {
	if e.kind != nil {
		return fmt.Sprintf("github returned status %d: %v", e.StatusCode, e.kind)
	}
	return fmt.Sprintf("github returned status %d", e.StatusCode)
}

// Unwrap exposes the classified sentinel error, if any.
func (e *StatusError) Unwrap() error {
	return e.kind
}

// RateLimit is one quota bucket.
type RateLimit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// ResetAt returns when the quota refills.
func (r RateLimit) ResetAt() time.Time {
	return time.Unix(r.Reset, 0).UTC()
}

// RateLimits is the response of the rate limit endpoint.
type RateLimits struct {
	Resources struct {
		Core   RateLimit `json:"core"`
		Search RateLimit `json:"search"`
	} `json:"resources"`
}
