package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/claim-assessor/internal/core/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate rule catalogs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available catalog versions, highest first",
			Args:  cobra.NoArgs,
			RunE:  runCatalogList,
		},
		&cobra.Command{
			Use:   "validate [dir]",
			Short: "Compile every catalog version and report all problems",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runCatalogValidate,
		},
		&cobra.Command{
			Use:   "show [version]",
			Short: "Print the rules of one catalog version",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runCatalogShow,
		},
	)
	return cmd
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	loader, err := catalog.OpenLoader(loadConfig(cmd).CatalogDir)
	if err != nil {
		return err
	}
	versions, err := loader.Versions()
	if err != nil {
		return err
	}
	for _, v := range versions {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	dir := loadConfig(cmd).CatalogDir
	if len(args) == 1 {
		dir = args[0]
	}
	loader, err := catalog.OpenLoader(dir)
	if err != nil {
		return err
	}
	versions, err := loader.Versions()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var errs []error
	for _, v := range versions {
		c, err := loader.Load(v)
		if err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", v, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d rules)\n", c.Version(), len(c.Rules()))
	}
	return errors.Join(errs...)
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	version := cfg.CatalogVersion
	if len(args) == 1 {
		version = args[0]
	}
	loader, err := catalog.OpenLoader(cfg.CatalogDir)
	if err != nil {
		return err
	}
	c, err := loader.Load(version)
	if err != nil {
		return err
	}

	info := c.Info()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "catalog %s: %s\n\n", info.Version, info.Description)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tEFFECT\tCRITICAL")
	for _, r := range info.Rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", r.ID, r.Category, r.Effect, r.Critical)
	}
	return tw.Flush()
}
