// =============================================================================
// Inventory Import - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It checks the configuration and
// the catalogs without touching any inventory file.
//
// COMMAND USAGE:
//   inventory-import validate [--xsd schema.xsd]
//
// CHECKS:
//   1. The main configuration loads and its values are in range
//   2. Every catalog in catalogs_dir loads
//   3. The active catalog builds, and the pipeline accepts it together
//      with the standardization vocabulary
//   4. The configured group_by and quantity fields exist in the catalog
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/converter"
	"github.com/ginjaninja78/inventory-import/internal/types"
	"github.com/ginjaninja78/inventory-import/internal/xmlwriter"
)

// xsdPath receives the XSD of the active catalog's XML export.
var xsdPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the catalogs",
	Long: `The validate command loads the main configuration, every catalog of the
catalogs directory and the active catalog, and reports any problem. It exits
with a non-zero status when something is wrong.

With --xsd, it also writes the XML schema of the export for the active
catalog.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&xsdPath, "xsd", "", "Write the XSD of the XML export to this file")
}

func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	fmt.Fprintln(out, "✓ Main configuration")

	catalogs, err := config.LoadCatalogs(env.cfg.CatalogsDir)
	if err != nil {
		return fmt.Errorf("catalogs directory: %w", err)
	}
	fmt.Fprintf(out, "✓ %d catalog(s) in %s\n", len(catalogs), env.cfg.CatalogsDir)

	opts := converter.OptionsFromConfig(env.cfg, env.catalog)
	if _, err := converter.New(env.catalog, opts, env.logger); err != nil {
		return fmt.Errorf("catalog %q: %w", env.catalog.Name, err)
	}

	var problems []string
	for _, key := range opts.Consolidation.GroupBy {
		if !env.catalog.Has(key) {
			problems = append(problems, fmt.Sprintf("group_by field %q is not in the catalog", key))
		}
	}
	if !env.catalog.Has(opts.Consolidation.QuantityField) {
		problems = append(problems, fmt.Sprintf("quantity field %q is not in the catalog", opts.Consolidation.QuantityField))
	}
	if len(problems) > 0 {
		return fmt.Errorf("catalog %q: %s", env.catalog.Name, strings.Join(problems, "; "))
	}

	printCatalog(cmd, env.catalog, opts)

	if xsdPath != "" {
		xsd, err := xmlwriter.GenerateXSD(env.catalog)
		if err != nil {
			return fmt.Errorf("failed to generate XSD: %w", err)
		}
		if err := os.WriteFile(xsdPath, xsd, 0644); err != nil {
			return fmt.Errorf("failed to write XSD: %w", err)
		}
		fmt.Fprintf(out, "✓ XSD written to %s\n", xsdPath)
	}

	return nil
}

func printCatalog(cmd *cobra.Command, catalog types.Catalog, opts converter.Options) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "✓ Catalog %q: %d field(s), %d required\n", catalog.Name, len(catalog.Fields), len(catalog.Required()))
	for _, f := range catalog.Fields {
		marker := " "
		if f.Required {
			marker = "*"
		}
		line := fmt.Sprintf("    %s %-24s %-8s %-8s %s", marker, f.Key, f.EffectiveType(), f.EffectiveSeverity(), f.DisplayName())
		if f.Role != types.RoleNone {
			line += fmt.Sprintf(" [%s]", f.Role)
		}
		fmt.Fprintln(out, line)
	}

	keys := make([]string, len(opts.Consolidation.GroupBy))
	for i, k := range opts.Consolidation.GroupBy {
		keys[i] = string(k)
	}
	fmt.Fprintf(out, "  Group by: %s, summing %s\n", strings.Join(keys, " + "), opts.Consolidation.QuantityField)
}
