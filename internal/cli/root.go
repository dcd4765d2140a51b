// Package cli provides the sheetctl administration command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetdocs/internal/application"
	"github.com/JonMunkholm/sheetdocs/internal/config"
	"github.com/JonMunkholm/sheetdocs/internal/logging"
)

// Version information (set at build time).
var Version = "0.1.0"

// appKey is used to store the opened application in context.
type appKey struct{}

// Opener builds the application for a command run.
type Opener func(ctx context.Context, cfg *config.Config) (*application.App, error)

// NewRootCmd creates the root command using application.Open.
func NewRootCmd() *cobra.Command {
	return newRootCmd(application.Open)
}

func newRootCmd(open Opener) *cobra.Command {
	var (
		envFile string
		backend string
		app     *application.App
	)

	rootCmd := &cobra.Command{
		Use:   "sheetctl",
		Short: "Administer spreadsheet-backed tables",
		Long: `sheetctl inspects and maintains the spreadsheet tabs and folders that back
the document tables. It reads the same environment as the server.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip setup for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load %s: %w", envFile, err)
				}
			} else {
				_ = godotenv.Load()
			}
			if backend != "" {
				if err := os.Setenv("REMOTE_BACKEND", backend); err != nil {
					return err
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			// Logs go to stderr so stdout stays machine readable.
			logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			slog.SetDefault(logger)

			app, err = open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app != nil {
				app.Close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "remote backend override (google|memory)")

	_ = rootCmd.RegisterFlagCompletionFunc("backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.BackendGoogle, config.BackendMemory}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newTablesCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newDeleteManyCommand())
	rootCmd.AddCommand(newViewCommand())
	rootCmd.AddCommand(newFoldersCommand())
	rootCmd.AddCommand(newProvisionCommand())
	rootCmd.AddCommand(newResetCommand())
	rootCmd.AddCommand(newRenameTabCommand())
	rootCmd.AddCommand(newLinksCommand())
	rootCmd.AddCommand(newAuditCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getApp retrieves the application from the command context.
func getApp(cmd *cobra.Command) *application.App {
	app, _ := cmd.Context().Value(appKey{}).(*application.App)
	return app
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
