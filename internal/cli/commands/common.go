package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/codephoenix/internal/logging"
	"github.com/ccollicutt/codephoenix/pkg/config"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// OutputOptions are the report flags shared by scan and show.
type OutputOptions struct {
	Output  string
	Verbose bool
	Quiet   bool
	NoColor bool
}

func addOutputFlags(cmd *cobra.Command, opts *OutputOptions) {
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show links, metadata and debug logs")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, warnings and errors only")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
}

// WebhookOptions describe a webhook given on the command line.
type WebhookOptions struct {
	URL     string
	Token   string
	Trigger string
}

func addWebhookFlags(cmd *cobra.Command, opts *WebhookOptions) {
	cmd.Flags().StringVar(&opts.URL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.Token, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.Trigger, "webhook-trigger", string(config.WebhookTriggerOnMatches), "When to fire webhook (on_matches|always|never)")
}

// collectWebhooks merges config file webhooks with the CLI webhook. The CLI
// webhook goes through the same checks as configured ones.
func collectWebhooks(configured []config.WebhookConfig, opts *WebhookOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(configured)+1)
	webhooks = append(webhooks, configured...)

	if opts.URL != "" {
		cli := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.URL,
			Token:   opts.Token,
			Trigger: config.WebhookTrigger(opts.Trigger),
		}
		if err := config.ValidateWebhook(&cli); err != nil {
			return nil, fmt.Errorf("--webhook-url/--webhook-trigger: %w", err)
		}
		webhooks = append(webhooks, cli)
	}

	return webhooks, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newLogger(cmd *cobra.Command, opts *OutputOptions) *zap.SugaredLogger {
	return logging.New(logging.Options{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		Output:  cmd.ErrOrStderr(),
	})
}

// colorDisabled reports whether text output to w should be plain: when
// asked, when NO_COLOR is set, or when w is not a terminal.
func colorDisabled(noColor bool, w io.Writer) bool {
	if noColor {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}
