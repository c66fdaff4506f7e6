package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/codephoenix/pkg/config"
	"github.com/ccollicutt/codephoenix/pkg/output"
	"github.com/ccollicutt/codephoenix/pkg/results"
	"github.com/ccollicutt/codephoenix/pkg/resultsfile"
	"github.com/ccollicutt/codephoenix/pkg/webhook"
)

// ShowOptions holds command-line options for the show command.
type ShowOptions struct {
	ConfigFile string
	Host       string

	OutputOptions
	Webhook WebhookOptions
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <results-file>...",
		Short: "Display the matches in saved scan results",
		Long: `Parse saved scan results and display the matches grouped by term.

Accepts JSON results files written by scan and raw transcript files.
Glob patterns are expanded; results from several files are listed in
argument order.

Exit codes:
  0 - No matches found
  1 - Matches found
  2 - Configuration or runtime error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file (for webhooks)")
	cmd.Flags().StringVar(&opts.Host, "host", results.DefaultHost, "Host used to build file links")
	addOutputFlags(cmd, &opts.OutputOptions)
	addWebhookFlags(cmd, &opts.Webhook)

	return cmd
}

func runShow(cmd *cobra.Command, args []string, opts *ShowOptions) error {
	ctx := commandContext(cmd)
	log := newLogger(cmd, &opts.OutputOptions)
	defer func() { _ = log.Sync() }()

	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		NoColor: colorDisabled(opts.NoColor, cmd.OutOrStdout()),
	})
	if err != nil {
		return err
	}

	var configured []config.WebhookConfig
	if opts.ConfigFile != "" {
		cfg, err := config.Read(ctx, opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		// Only the webhooks matter here; a results-only config needs no token.
		if err := config.ValidateWebhooks(cfg.Webhooks); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		configured = cfg.Webhooks
	}
	hooks, err := collectWebhooks(configured, &opts.Webhook)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	files, err := resultsfile.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding results files: %w", err)
	}

	parser := results.NewParser(results.WithHost(opts.Host))
	var groups []results.Group
	var meta output.Metadata

	for _, file := range files {
		parsed, err := loadResults(ctx, file, parser, len(files) == 1, &meta, log)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		log.Debugw("parsed results", "file", file, "groups", len(parsed), "items", results.Count(parsed))
		groups = append(groups, parsed...)
	}

	report := output.NewReport(groups, files)
	report.Metadata.ScanID = meta.ScanID
	report.Metadata.Duration = meta.Duration

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

// loadResults parses one results file. JSON envelopes also contribute run
// metadata when they are the only input.
func loadResults(ctx context.Context, file string, parser *results.Parser, single bool, meta *output.Metadata, log *zap.SugaredLogger) ([]results.Group, error) {
	if !resultsfile.IsEnvelopeFile(file) {
		return resultsfile.LoadGroups(ctx, file, parser)
	}

	env, err := resultsfile.Load(ctx, file)
	if err != nil {
		return nil, err
	}
	if env.Status == resultsfile.StatusError {
		log.Warnw("scan recorded an error, results may be partial", "file", file, "error", env.Error)
	}
	if single {
		meta.ScanID = env.ScanID
		meta.Duration = env.Duration()
	}

	return parser.Parse(env.Output), nil
}
