// Package cli implements claimctl, the offline companion to the assessment
// service.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/claim-assessor/internal/config"
	"github.com/kirillkom/claim-assessor/internal/observability/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "claimctl",
		Short:         "Assess FNOL records and manage rule catalogs offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("catalog-dir", "", "directory of catalog YAML files (default: embedded catalogs)")
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newAssessCmd(), newCatalogCmd(), newVersionCmd())
	return root
}

// Execute runs claimctl with the process arguments.
func Execute() error {
	root := newRootCmd()
	err := root.Execute()
	if err != nil {
		root.PrintErrln("Error:", err)
	}
	return err
}

// loadConfig reads the environment and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if dir, _ := cmd.Flags().GetString("catalog-dir"); dir != "" {
		cfg.CatalogDir = dir
	}
	return cfg
}

// commandLogger writes to stderr so stdout stays machine-readable.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "claimctl", level)
}
