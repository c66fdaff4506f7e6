package commands

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/codephoenix/pkg/config"
	"github.com/ccollicutt/codephoenix/pkg/github"
	"github.com/ccollicutt/codephoenix/pkg/output"
	"github.com/ccollicutt/codephoenix/pkg/resultsfile"
	"github.com/ccollicutt/codephoenix/pkg/scanner"
	"github.com/ccollicutt/codephoenix/pkg/termtype"
	"github.com/ccollicutt/codephoenix/pkg/webhook"
)

// ScanOptions holds command-line options for the scan command.
type ScanOptions struct {
	ConfigFile     string
	EnvFile        string
	Token          string
	SearchTerms    string
	ResultsPerPage int
	Pages          int
	SleepTime      int
	StartDate      string
	EndDate        string
	OutputFile     string
	APIURL         string
	NoProbe        bool

	OutputOptions
	Webhook WebhookOptions
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [term...]",
		Short: "Search GitHub code for leaked values",
		Long: `Search public GitHub code for each term and save the result transcript.

Each term is classified (email, URL, AWS key, GitHub token, JWT, database
URL, password, ...) and searched with type-specific query strategies.
Settings come from an optional YAML config file, a .env file, the
environment (GITHUB_TOKEN, SEARCH_TERM, RESULTS_PER_PAGE, PAGES,
SLEEP_TIME, START_DATE, END_DATE) and finally these flags.

Terms given as arguments replace configured search terms.

Exit codes:
  0 - No matches found
  1 - Matches found
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "Environment file to load (ignored if missing)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "GitHub token (prefer GITHUB_TOKEN)")
	cmd.Flags().StringVar(&opts.SearchTerms, "search-terms", "", "Comma-separated search terms")
	cmd.Flags().IntVar(&opts.ResultsPerPage, "results-per-page", config.DefaultResultsPerPage, "Results per page (1-100)")
	cmd.Flags().IntVar(&opts.Pages, "pages", config.DefaultPages, "Maximum pages per term")
	cmd.Flags().IntVar(&opts.SleepTime, "sleep-time", int(config.DefaultSleepTime/time.Second), "Seconds to wait between pages")
	cmd.Flags().StringVar(&opts.StartDate, "start-date", "", "Only repositories pushed since this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.EndDate, "end-date", "", "Only repositories pushed until this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.OutputFile, "output-file", config.DefaultOutputFile, "Where to save the results file")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", config.DefaultAPIURL, "GitHub API endpoint")
	cmd.Flags().BoolVar(&opts.NoProbe, "no-probe", false, "Apply the date filter without probing it first")
	addOutputFlags(cmd, &opts.OutputOptions)
	addWebhookFlags(cmd, &opts.Webhook)

	return cmd
}

func runScan(cmd *cobra.Command, args []string, opts *ScanOptions) error {
	ctx := commandContext(cmd)
	log := newLogger(cmd, &opts.OutputOptions)
	defer func() { _ = log.Sync() }()

	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet || opts.Output != "json",
		NoColor: colorDisabled(opts.NoColor, cmd.OutOrStdout()),
	})
	if err != nil {
		return err
	}

	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return err
	}

	cfg, err := config.Read(ctx, opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyScanFlags(cmd, args, opts, cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	hooks, err := collectWebhooks(cfg.Webhooks, &opts.Webhook)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if warning := config.TokenWarning(cfg.GitHubToken); warning != "" {
		log.Warnw(warning, "token", config.RedactToken(cfg.GitHubToken))
	}
	log.Infow("starting scan", "terms", cfg.SearchTerms, "pages", cfg.Pages, "per_page", cfg.ResultsPerPage)

	client := github.NewClient(cfg.GitHubToken,
		github.WithBaseURL(cfg.APIURL),
		github.WithUserAgent("codephoenix/"+Version),
	)
	s := scanner.New(client, cfg, scanner.WithLogger(log))

	// The transcript is always captured for the results file and echoed
	// live in text mode.
	var transcript bytes.Buffer
	var w io.Writer = &transcript
	if opts.Output != "json" && !opts.Quiet {
		w = io.MultiWriter(&transcript, cmd.OutOrStdout())
	}

	started := time.Now().UTC()
	stats, runErr := s.Run(ctx, cfg.SearchTerms, w)
	finished := time.Now().UTC()

	env := resultsfile.New(transcript.String(), cfg.SearchTerms, started, finished, runErr)
	if err := resultsfile.Save(ctx, cfg.OutputFile, env); err != nil {
		return err
	}
	log.Infow("results saved", "file", cfg.OutputFile, "matches", env.TotalResults,
		"requests", stats.Requests, "rate_limited", stats.RateLimited)

	if runErr != nil {
		return fmt.Errorf("scan failed: %w", runErr)
	}

	report := output.NewReport(env.Groups(), []string{cfg.OutputFile})
	report.Metadata.ScanID = env.ScanID
	report.Metadata.Duration = env.Duration()

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	webhook.NewClient(webhook.WithLogger(log)).
		Dispatch(ctx, report, hooks)

	if report.HasMatches() {
		ExitCode = 1
	}

	return nil
}

// applyScanFlags layers explicitly set flags and positional terms over the
// file and environment configuration.
func applyScanFlags(cmd *cobra.Command, args []string, opts *ScanOptions, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("token") {
		cfg.GitHubToken = opts.Token
	}
	if flags.Changed("search-terms") {
		cfg.SearchTerms = termtype.ParseTerms(opts.SearchTerms)
	}
	if len(args) > 0 {
		cfg.SearchTerms = args
	}
	if flags.Changed("results-per-page") {
		cfg.ResultsPerPage = opts.ResultsPerPage
	}
	if flags.Changed("pages") {
		cfg.Pages = opts.Pages
	}
	if flags.Changed("sleep-time") {
		cfg.SleepTime = time.Duration(opts.SleepTime) * time.Second
	}
	if flags.Changed("start-date") {
		cfg.StartDate = opts.StartDate
	}
	if flags.Changed("end-date") {
		cfg.EndDate = opts.EndDate
	}
	if flags.Changed("output-file") {
		cfg.OutputFile = opts.OutputFile
	}
	if flags.Changed("api-url") {
		cfg.APIURL = opts.APIURL
	}
	if opts.NoProbe {
		probe := false
		cfg.ProbeDateFilter = &probe
	}
}
