package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/claim-assessor/internal/bootstrap"
)

// Set via ldflags at build time.
var (
	commit = "none"
	date   = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "claimctl %s (commit %s, built %s)\n", bootstrap.Version, commit, date)
		},
	}
}
