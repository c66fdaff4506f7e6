package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/codephoenix/pkg/config"
	"github.com/ccollicutt/codephoenix/pkg/github"
	"github.com/ccollicutt/codephoenix/pkg/scanner"
	"github.com/ccollicutt/codephoenix/pkg/termtype"
	"github.com/ccollicutt/codephoenix/pkg/webhook"
)

// pingTimeout bounds each connectivity check.
const pingTimeout = 5 * time.Second

// Diagnostic statuses.
const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	EnvFile string
	Verbose bool
	Offline bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [config-file]",
		Short: "Diagnose common setup issues",
		Long: `Diagnose common setup issues before running a scan.

Checks:
  - Config file presence and YAML syntax
  - Token, search terms, paging and date range settings
  - That GitHub accepts the token, and the remaining search quota
  - Webhook URLs, triggers and unresolved ${VAR} tokens
  - Webhook reachability (with --verbose)

Without a file, diagnoses the settings taken from the .env file and the
environment. --offline skips every network check.

Example:
  codephoenix diagnose codephoenix.yaml
  codephoenix diagnose -v codephoenix.yaml  # verbose output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "Environment file to load (ignored if missing)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output and test webhook reachability")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Skip the GitHub and webhook network checks")

	return cmd
}

func runDiagnose(cmd *cobra.Command, args []string, opts *DiagnoseOptions) error {
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return err
	}

	results := []DiagnosticResult{}

	// 1. Check config file existence
	path := ""
	if len(args) == 1 {
		path = args[0]
		result := checkConfigExists(path)
		results = append(results, result)
		if result.Status == statusError {
			printDiagnostics(w, results, opts)
			return nil
		}
	}

	// 2. Parse config file and environment
	cfg, result := checkConfigParseable(ctx, path)
	results = append(results, result)
	if result.Status == statusError {
		printDiagnostics(w, results, opts)
		return nil
	}

	// Settings validation expands webhook tokens; keep the raw ones.
	hooks := slices.Clone(cfg.Webhooks)

	// 3. Check scan settings
	settings, result := checkSettings(cfg)
	results = append(results, result)

	// 4. Check the token against GitHub
	if settings != nil {
		results = append(results, checkToken(settings.GitHubToken))
		if !opts.Offline {
			results = append(results, checkGitHubAPI(ctx, settings))
		}
	}

	// 5. Check webhooks configuration
	results = append(results, checkWebhooks(ctx, hooks, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = statusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Settings can also come from GITHUB_TOKEN, SEARCH_TERM and a .env file; run 'codephoenix diagnose' without a file",
		}
		return result
	}
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = statusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = statusError
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Add at least github_token (or GITHUB_TOKEN) and search_terms",
		}
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Read(ctx, path)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
				"Durations such as sleep_time need a unit, e.g. 2s",
			}
		}
		return nil, result
	}

	result.Status = statusOK
	if path == "" {
		result.Message = "Settings read from the environment"
	} else {
		result.Message = "Config file parsed successfully"
	}
	result.Details = []string{
		fmt.Sprintf("Search terms: %d", len(cfg.SearchTerms)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

// checkSettings validates everything but the webhooks, which get their
// own per-hook checks.
func checkSettings(cfg *config.Config) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Scan Settings",
	}

	settings := *cfg
	settings.SearchTerms = slices.Clone(cfg.SearchTerms)
	settings.Webhooks = nil

	if err := config.Validate(&settings); err != nil {
		result.Status = statusError
		result.Message = err.Error()
		switch {
		case strings.HasPrefix(err.Error(), "github_token"):
			result.Suggests = []string{"Set github_token in the config, GITHUB_TOKEN in the environment, or add it to .env"}
		case strings.HasPrefix(err.Error(), "search_terms"):
			result.Suggests = []string{"Add search_terms to the config or set SEARCH_TERM (comma separated)"}
		}
		return nil, result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("%d term(s), up to %d page(s) of %d", len(settings.SearchTerms), settings.Pages, settings.ResultsPerPage)
	for _, term := range settings.SearchTerms {
		result.Details = append(result.Details, fmt.Sprintf("Term: %s [%s]", term, termtype.Detect(term).Label()))
	}
	if start, end, ok := settings.DateRange(); ok {
		result.Details = append(result.Details, "Date filter: "+scanner.DateQualifier(start, end))
	} else if settings.StartDate != "" || settings.EndDate != "" {
		result.Status = statusWarning
		result.Message = "Date filter ignored: start_date and end_date must both be set"
	}

	return &settings, result
}

func checkToken(token string) DiagnosticResult {
	result := DiagnosticResult{
		Check:   "Token Format",
		Details: []string{"Token: " + config.RedactToken(token)},
	}

	if warning := config.TokenWarning(token); warning != "" {
		result.Status = statusWarning
		result.Message = warning
		result.Suggests = []string{"Other token kinds still work if GitHub accepts them"}
		return result
	}

	result.Status = statusOK
	result.Message = "Token looks like a GitHub personal access token"
	return result
}

func checkGitHubAPI(ctx context.Context, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "GitHub API",
	}

	client := github.NewClient(cfg.GitHubToken,
		github.WithBaseURL(cfg.APIURL),
		github.WithUserAgent("codephoenix/"+Version),
	)
	limits, err := client.RateLimits(ctx)
	switch {
	case errors.Is(err, github.ErrUnauthorized):
		result.Status = statusError
		result.Message = "GitHub rejected the token"
		result.Suggests = []string{
			"Check the token has not expired or been revoked",
			"Create a new token at https://github.com/settings/tokens",
		}
		return result
	case errors.Is(err, github.ErrRateLimited):
		result.Status = statusWarning
		result.Message = "GitHub is rate limiting this token"
		result.Suggests = []string{"Wait before scanning, or raise sleep_time"}
		return result
	case err != nil:
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot reach %s: %v", cfg.APIURL, err)
		result.Suggests = []string{
			"Check api_url and network connectivity",
		}
		return result
	}

	search := limits.Resources.Search
	result.Details = []string{
		fmt.Sprintf("Endpoint: %s", cfg.APIURL),
		fmt.Sprintf("Core quota: %d/%d", limits.Resources.Core.Remaining, limits.Resources.Core.Limit),
	}
	if search.Limit > 0 && search.Remaining == 0 {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Search quota exhausted until %s", search.ResetAt().Format(time.RFC3339))
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("Token accepted, search quota %d/%d", search.Remaining, search.Limit)
	return result
}

func checkWebhooks(ctx context.Context, hooks []config.WebhookConfig, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(hooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  statusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	client := webhook.NewClient()
	for _, raw := range hooks {
		name := raw.Name
		if name == "" {
			name = raw.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		wh := raw
		if err := config.ValidateWebhook(&wh); err != nil {
			result.Status = statusError
			result.Message = "Configuration issue"
			result.Details = []string{err.Error()}
			results = append(results, result)
			continue
		}

		if strings.HasPrefix(raw.Token, "$") && wh.Token == "" {
			result.Status = statusWarning
			result.Message = fmt.Sprintf("Token refers to an unset environment variable: %s", raw.Token)
			result.Suggests = []string{"Export the variable or add it to .env; the webhook is sent without auth otherwise"}
		} else {
			result.Status = statusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}
		results = append(results, result)

		if opts.Verbose && !opts.Offline {
			conn := checkWebhookConnectivity(ctx, client, wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, client *webhook.Client, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	resp := client.Ping(ctx, webhook.SendOptions{
		URL:     wh.URL,
		Token:   wh.Token,
		Timeout: pingTimeout,
	})
	if resp.Error != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", resp.Error)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}

	// Any response means the server is reachable
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = statusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== CodePhoenix Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case statusOK:
			icon = "PASS"
			okCount++
		case statusWarning:
			icon = "WARN"
			warnCount++
		case statusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != statusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before scanning.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nSetup is usable but has warnings.")
	default:
		fmt.Fprintln(w, "\nSetup looks good!")
	}
}
