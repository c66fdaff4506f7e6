// Package cli provides the command-line interface for CodePhoenix.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/codephoenix/internal/cli/commands"
	"github.com/ccollicutt/codephoenix/internal/cli/plugins"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, NewRootCommand(), os.Args[1:])
}

func execute(ctx context.Context, rootCmd *cobra.Command, args []string) int {
	commands.ExitCode = 0

	// Unknown first words are handed to a codephoenix-<command> plugin when one exists.
	pluginCandidate := ""
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' && !isBuiltinCommand(rootCmd, args[0]) {
		pluginCandidate = args[0]
		if pluginPath, err := plugins.FindPlugin(pluginCandidate); err == nil {
			return plugins.Execute(ctx, pluginPath, args[1:])
		}
	}

	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if pluginCandidate != "" {
			_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), plugins.FormatNotFoundError(pluginCandidate))
			return 2
		}
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codephoenix",
		Short: "Find leaked values in public GitHub code",
		Long: `CodePhoenix searches public GitHub code for values that should not be there:
emails, URLs, API keys, cloud credentials, tokens, connection strings and
passwords.

Typical use:
  codephoenix scan --search-terms "user@example.com,AKIA..."   # search and save scan_results.json
  codephoenix show scan_results.json                          # list matches by term
  codephoenix detect "postgresql://admin@db/prod"             # preview query strategies
  codephoenix diagnose codephoenix.yaml                        # check token, settings and webhooks

PLUGINS:
  Standalone binaries named codephoenix-<command> are discovered and run for
  unknown commands.

  Plugin locations (searched in order):
    1. Same directory as the codephoenix binary
    2. ~/.codephoenix/plugins/
    3. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewShowCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
