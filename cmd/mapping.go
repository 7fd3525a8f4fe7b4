// =============================================================================
// Inventory Import - Mapping Command
// =============================================================================
//
// This file defines the 'mapping' command, which shows how the headers of a
// file are matched to the catalog without running the rest of the pipeline.
//
// COMMAND USAGE:
//   inventory-import mapping <file>
//
// OUTPUT:
//   "modele" -> modele (exact, 1.00)
//   "Qté" -> quantite (fallback, 0.69)
//   "Commentaire" -> non mappé
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/inventory-import/internal/converter"
	"github.com/ginjaninja78/inventory-import/internal/mapping"
	"github.com/ginjaninja78/inventory-import/internal/tabular"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping <file>",
	Short: "Show how the headers of a file match the catalog",
	Long: `The mapping command parses a file and prints, for each column, the catalog
field its header was matched to, how it was matched and with what
similarity. Required fields left without a column are listed at the end.`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runMapping(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(mappingCmd)
}

func runMapping(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	table, err := tabular.Parse(data, path, env.cfg.CSV)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	opts := converter.OptionsFromConfig(env.cfg, env.catalog)
	m := mapping.Match(table.Headers, env.catalog, opts.Matching)

	fmt.Fprintf(out, "%s: %d column(s), %d row(s), catalog %q\n", path, len(table.Headers), len(table.Rows), env.catalog.Name)
	if len(table.Issues) > 0 {
		fmt.Fprintf(out, "%d parse issue(s)\n", len(table.Issues))
	}
	fmt.Fprintln(out)

	for _, line := range mapping.Describe(m) {
		fmt.Fprintf(out, "  %s\n", line)
	}

	missing := m.MissingRequired(env.catalog)
	if len(missing) == 0 {
		fmt.Fprintln(out, "\nEvery required field has a column.")
		return nil
	}

	fmt.Fprintf(out, "\n%d required field(s) without a column:\n", len(missing))
	for _, f := range missing {
		fmt.Fprintf(out, "  %s (%s)\n", f.Key, f.DisplayName())
	}
	return nil
}
