package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/claim-assessor/internal/bootstrap"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

func newAssessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess <fnol.json|->",
		Short: "Assess one FNOL record and print the claim assessment",
		Long: `Run the full stage pipeline on one FNOL JSON document without storage,
cache or queue. Use "-" to read from stdin.

Exit codes:
  0 - assessment produced (any eligibility)
  1 - input or catalog error`,
		Args: cobra.ExactArgs(1),
		RunE: runAssess,
	}
	cmd.Flags().String("catalog-version", "", "catalog version or semver constraint (default: CATALOG_VERSION or latest)")
	cmd.Flags().String("third-party-branch", "", "retain or exclude third-party cover on critical driver exclusions")
	cmd.Flags().Bool("compact", false, "print single-line JSON")
	return cmd
}

func runAssess(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if v, _ := cmd.Flags().GetString("catalog-version"); v != "" {
		cfg.CatalogVersion = v
	}
	if b, _ := cmd.Flags().GetString("third-party-branch"); b != "" {
		cfg.ThirdPartyBranch = b
	}

	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	var fnol domain.FNOL
	if err := json.Unmarshal(raw, &fnol); err != nil {
		return fmt.Errorf("parsing fnol %s: %w", args[0], err)
	}

	engine, _, _, err := bootstrap.Engine(cfg, nil, commandLogger(cmd))
	if err != nil {
		return err
	}
	result, err := engine.Assess(cmd.Context(), fnol)
	if err != nil {
		return fmt.Errorf("assessing %s: %w", args[0], err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if compact, _ := cmd.Flags().GetBool("compact"); !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return raw, nil
}
