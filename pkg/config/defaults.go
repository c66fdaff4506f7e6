package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ccollicutt/codephoenix/pkg/termtype"
)

// Default values for configuration.
const (
	DefaultResultsPerPage = 30
	DefaultPages          = 5
	DefaultSleepTime      = 2 * time.Second
	DefaultMaxRetries     = 3
	DefaultAPIURL         = "https://api.github.com"
	DefaultOutputFile     = "scan_results.json"
	DefaultWebhookTimeout = 10 * time.Second
	DefaultEnvFile        = ".env"
)

// Environment variable names, shared with the .env file.
const (
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvSearchTerm     = "SEARCH_TERM"
	EnvResultsPerPage = "RESULTS_PER_PAGE"
	EnvPages          = "PAGES"
	EnvSleepTime      = "SLEEP_TIME"
	EnvStartDate      = "START_DATE"
	EnvEndDate        = "END_DATE"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SearchTerms:    []string{},
		ResultsPerPage: DefaultResultsPerPage,
		Pages:          DefaultPages,
		SleepTime:      DefaultSleepTime,
		MaxRetries:     DefaultMaxRetries,
		APIURL:         DefaultAPIURL,
		OutputFile:     DefaultOutputFile,
	}
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// Malformed numeric values are ignored and the configured value is kept.
func (c *Config) applyEnvironmentOverrides() {
	if token := os.Getenv(EnvGitHubToken); token != "" {
		c.GitHubToken = token
	}

	if terms := termtype.ParseTerms(os.Getenv(EnvSearchTerm)); len(terms) > 0 {
		c.SearchTerms = terms
	}

	if n, ok := envInt(EnvResultsPerPage); ok {
		c.ResultsPerPage = n
	}

	if n, ok := envInt(EnvPages); ok {
		c.Pages = n
	}

	// SLEEP_TIME is whole seconds, as in the .env files the scanner has always read.
	if n, ok := envInt(EnvSleepTime); ok {
		c.SleepTime = time.Duration(n) * time.Second
	}

	if v := os.Getenv(EnvStartDate); v != "" {
		c.StartDate = v
	}

	if v := os.Getenv(EnvEndDate); v != "" {
		c.EndDate = v
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
