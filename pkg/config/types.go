// Package config provides configuration loading and validation for CodePhoenix.
package config

import "time"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// GitHubToken authenticates code search requests.
	// Supports ${VAR} and $VAR references.
	GitHubToken string `yaml:"github_token,omitempty"`

	// SearchTerms are the values to look for.
	SearchTerms []string `yaml:"search_terms"`

	// ResultsPerPage is the API page size (1-100).
	ResultsPerPage int `yaml:"results_per_page,omitempty"`

	// Pages is the maximum number of pages fetched per term.
	Pages int `yaml:"pages,omitempty"`

	// SleepTime is the pause between pages and before rate-limit retries.
	SleepTime time.Duration `yaml:"sleep_time,omitempty"`

	// StartDate and EndDate (YYYY-MM-DD) restrict results to repositories
	// pushed (or created, before 2008) in the range. Both must be set.
	StartDate string `yaml:"start_date,omitempty"`
	EndDate   string `yaml:"end_date,omitempty"`

	// ProbeDateFilter checks that the date filter returns hits before
	// using it, dropping it when it is too restrictive.
	ProbeDateFilter *bool `yaml:"probe_date_filter,omitempty"`

	// MaxRetries bounds retries of a rate-limited page.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// APIURL is the GitHub API endpoint.
	APIURL string `yaml:"api_url,omitempty"`

	// OutputFile is where the results envelope is written.
	OutputFile string `yaml:"output_file,omitempty"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// DateRange returns the configured range and whether it is active.
func (c *Config) DateRange() (start, end string, ok bool) {
	if c.StartDate == "" || c.EndDate == "" {
		return "", "", false
	}
	return c.StartDate, c.EndDate, true
}

// ShouldProbeDateFilter reports whether the date filter is probed (default true).
func (c *Config) ShouldProbeDateFilter() bool {
	return c.ProbeDateFilter == nil || *c.ProbeDateFilter
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnMatches fires only when matches are found (default).
	WebhookTriggerOnMatches WebhookTrigger = "on_matches"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending scan reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_matches" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
