package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/codephoenix/pkg/config"
	"github.com/ccollicutt/codephoenix/pkg/scanner"
	"github.com/ccollicutt/codephoenix/pkg/termtype"
)

// ValidateOptions holds command-line options for the validate command.
type ValidateOptions struct {
	EnvFile string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate scan configuration",
		Long: `Validate scan configuration without contacting GitHub.

Without a file, validates the settings taken from the .env file and the
environment.

Checks:
  - YAML syntax
  - Token presence and shape (ghp_ >= 40 or github_pat_ >= 50 chars, warning only)
  - Search terms, page size and page count
  - Date range format and order
  - Webhook URLs and triggers`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "Environment file to load (ignored if missing)")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, opts *ValidateOptions) error {
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	configPath := ""
	source := "environment"
	if len(args) == 1 {
		configPath = args[0]
		source = configPath
	}

	fmt.Fprintf(w, "Validating %s...\n", source)

	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return err
	}

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Token:            %s\n", config.RedactToken(cfg.GitHubToken))
	fmt.Fprintf(w, "  Results per page: %d\n", cfg.ResultsPerPage)
	fmt.Fprintf(w, "  Pages:            %d\n", cfg.Pages)
	fmt.Fprintf(w, "  Sleep time:       %s\n", cfg.SleepTime)
	fmt.Fprintf(w, "  Output file:      %s\n", cfg.OutputFile)

	if start, end, ok := cfg.DateRange(); ok {
		fmt.Fprintf(w, "  Date filter:      %s\n", scanner.DateQualifier(start, end))
	} else {
		fmt.Fprintf(w, "  Date filter:      none (full history)\n")
	}

	fmt.Fprintf(w, "\nSearch terms:\n")
	for i, term := range cfg.SearchTerms {
		fmt.Fprintf(w, "  %d. %s [%s]\n", i+1, term, termtype.Detect(term).Label())
	}

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "\nWebhooks:\n")
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}
			fmt.Fprintf(w, "  - %s (%s)\n", name, wh.Trigger)
		}
	}

	if warning := config.TokenWarning(cfg.GitHubToken); warning != "" {
		fmt.Fprintf(w, "\nWarning: %s\n", warning)
	}
	if cfg.StartDate != "" && cfg.EndDate == "" || cfg.StartDate == "" && cfg.EndDate != "" {
		fmt.Fprintf(w, "\nWarning: date filter needs both start_date and end_date; %s ignored\n",
			strings.TrimSpace(cfg.StartDate+" "+cfg.EndDate))
	}

	return nil
}
