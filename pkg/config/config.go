package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the accepted format for start_date and end_date.
const DateLayout = "2006-01-02"

// Load reads and validates a configuration file.
// An empty path loads defaults plus environment overrides only.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Read loads a configuration file and applies environment overrides
// without validating, so callers can layer flags on top before Validate.
func Read(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults.
func Validate(cfg *Config) error {
	cfg.GitHubToken = strings.TrimSpace(expandEnvVar(cfg.GitHubToken))
	if cfg.GitHubToken == "" {
		return errors.New("github_token: a GitHub token is required (set github_token or GITHUB_TOKEN)")
	}

	terms := cfg.SearchTerms[:0]
	for _, term := range cfg.SearchTerms {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	cfg.SearchTerms = terms
	if len(cfg.SearchTerms) == 0 {
		return errors.New("search_terms: at least one search term is required")
	}

	if cfg.ResultsPerPage == 0 {
		cfg.ResultsPerPage = DefaultResultsPerPage
	}
	if cfg.ResultsPerPage < 1 || cfg.ResultsPerPage > 100 {
		return fmt.Errorf("results_per_page: must be between 1 and 100, got %d", cfg.ResultsPerPage)
	}

	if cfg.Pages == 0 {
		cfg.Pages = DefaultPages
	}
	if cfg.Pages < 1 {
		return fmt.Errorf("pages: must be >= 1, got %d", cfg.Pages)
	}

	if cfg.SleepTime < 0 {
		return fmt.Errorf("sleep_time: must not be negative, got %s", cfg.SleepTime)
	}

	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries: must not be negative, got %d", cfg.MaxRetries)
	}

	if err := validateDates(cfg); err != nil {
		return err
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if err := validateHTTPURL(cfg.APIURL); err != nil {
		return fmt.Errorf("api_url: %w", err)
	}

	if cfg.OutputFile == "" {
		cfg.OutputFile = DefaultOutputFile
	}

	return ValidateWebhooks(cfg.Webhooks)
}

// ValidateWebhooks checks each webhook and fills in its defaults. Token
// references are expanded in place.
func ValidateWebhooks(hooks []WebhookConfig) error {
	for i := range hooks {
		if err := ValidateWebhook(&hooks[i]); err != nil {
			name := hooks[i].Name
			if name == "" {
				name = hooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}
	return nil
}

func validateDates(cfg *Config) error {
	var start, end time.Time
	var err error

	if cfg.StartDate != "" {
		if start, err = time.Parse(DateLayout, cfg.StartDate); err != nil {
			return fmt.Errorf("start_date: expected YYYY-MM-DD, got %q", cfg.StartDate)
		}
	}

	if cfg.EndDate != "" {
		if end, err = time.Parse(DateLayout, cfg.EndDate); err != nil {
			return fmt.Errorf("end_date: expected YYYY-MM-DD, got %q", cfg.EndDate)
		}
	}

	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end_date %s is before start_date %s", cfg.EndDate, cfg.StartDate)
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	return nil
}

// ValidateWebhook checks one webhook, expands its token and defaults its
// trigger and timeout.
func ValidateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	if err := validateHTTPURL(wh.URL); err != nil {
		return err
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	// Validate trigger if specified
	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnMatches, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_matches, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnMatches
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}

// TokenWarning returns a message when a token does not look like a GitHub
// personal access token, or "" when it does. Other token kinds still work,
// so this is advisory only.
func TokenWarning(token string) string {
	switch {
	case strings.HasPrefix(token, "github_pat_"):
		if len(token) < 50 {
			return "fine-grained token (github_pat_) looks too short; expected at least 50 characters"
		}
	case strings.HasPrefix(token, "ghp_"):
		if len(token) < 40 {
			return "classic token (ghp_) looks too short; expected at least 40 characters"
		}
	default:
		return "token does not start with ghp_ or github_pat_"
	}
	return ""
}

// RedactToken masks all but the prefix of a token for display.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	prefix := ""
	for _, p := range []string{"github_pat_", "ghp_", "gho_", "ghu_", "ghs_", "ghr_"} {
		if strings.HasPrefix(token, p) {
			prefix = p
			break
		}
	}
	return prefix + "[REDACTED]"
}
