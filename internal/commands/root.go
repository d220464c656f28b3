package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/ledger"
	"tally/internal/service"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tally-cli",
		Short: "Inspect and export tally ledgers from the command line",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSessionsCommand())
	rootCmd.AddCommand(newSummaryCommand())
	rootCmd.AddCommand(newExportCommand())

	return rootCmd
}

// openBackend wires up the configured backend, the same composition the
// server uses.
func openBackend() (backend.Backend, func(), error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	factory := backend.NewFactory(nil)
	result, err := factory.CreateBackend(context.Background(), backend.Config{
		Type:          backend.Type(cfg.DataBackend),
		SQLiteDBPath:  cfg.SQLiteDBPath,
		DataDirectory: cfg.DataDir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initializing backend: %w", err)
	}

	done := func() {
		if err := result.Cleanup(); err != nil {
			fmt.Fprintln(os.Stderr, "warning: backend cleanup failed:", err)
		}
	}
	return result.Backend, done, nil
}

func loadEngine(cmd *cobra.Command, sessionID string) (*ledger.Engine, func(), error) {
	be, done, err := openBackend()
	if err != nil {
		return nil, nil, err
	}

	svc := service.NewLedgerService(be, be, nil)
	eng, err := svc.LoadSession(cmd.Context(), sessionID)
	if err != nil {
		done()
		return nil, nil, err
	}
	return eng, done, nil
}
