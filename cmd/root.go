// =============================================================================
// Inventory Import - Root Command
// =============================================================================
//
// This file defines the root command of the CLI and the setup shared by all
// subcommands: configuration, logging and catalog resolution.
//
// COBRA CLI STRUCTURE:
//   rootCmd (inventory-import)
//   ├── processCmd  (inventory-import process)
//   ├── validateCmd (inventory-import validate)
//   ├── mappingCmd  (inventory-import mapping <file>)
//   └── versionCmd  (inventory-import version)
//
// CATALOG RESOLUTION:
//   --catalog (or "catalog" in the config) may name
//   1. an XLSX catalog template,
//   2. a YAML catalog file,
//   3. a catalog in catalogs_dir (YAML, or <name>.xlsx),
//   4. a built-in catalog ("g4it", "generic").
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/logging"
	"github.com/ginjaninja78/inventory-import/internal/types"
	"github.com/ginjaninja78/inventory-import/internal/xlsxparser"
	"github.com/ginjaninja78/inventory-import/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file. Empty means
// config.yaml in the working directory, if there is one.
var cfgFile string

// verbose switches logging to debug level.
var verbose bool

// catalogRef overrides the catalog named in the configuration.
var catalogRef string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "inventory-import",
	Short: "Inventory Import - validate and consolidate equipment inventory files",
	Long: `Inventory Import reads equipment inventories exported as CSV or XLSX,
maps their columns onto a field catalog, validates every row, standardizes
statuses, types and quantities, and consolidates identical equipment into
one record per model.

Key Features:
  - CSV and XLSX input, any delimiter, UTF-8/UTF-16/Windows-1252 text
  - Approximate header matching ("Qté" finds "Quantité")
  - Findings with a severity and a suggested fix for every problem
  - Export blocked while critical findings remain
  - XML or XLSX output, concurrent processing, automatic archival

Example Usage:
  inventory-import process                      # Process the input directory
  inventory-import process --file parc.csv      # Process one file
  inventory-import mapping parc.xlsx            # Show how headers are matched
  inventory-import validate --catalog my.xlsx   # Check config and catalog`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the main configuration file (default is ./config.yaml when present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&catalogRef,
		"catalog",
		"",
		"Catalog to validate against: built-in name, catalog name, YAML file or XLSX template",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// environment is what every command needs before it can work.
type environment struct {
	cfg     *config.MainConfig
	catalog types.Catalog
	logger  *zap.Logger
}

// loadEnvironment loads the configuration, builds the logger and resolves
// the active catalog.
func loadEnvironment() (*environment, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	ref := cfg.Catalog
	if catalogRef != "" {
		ref = catalogRef
	}

	catalog, err := resolveCatalog(ref, cfg.CatalogsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %q: %w", ref, err)
	}

	logger.Debug("environment ready",
		zap.String("config", cfgFile),
		zap.String("catalog", catalog.Name),
		zap.Int("fields", len(catalog.Fields)))

	return &environment{cfg: cfg, catalog: catalog, logger: logger}, nil
}

// resolveCatalog finds a catalog, XLSX templates included.
func resolveCatalog(ref, catalogsDir string) (types.Catalog, error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".xlsx", ".xlsm":
		return loadTemplateCatalog(ref)
	}

	catalog, err := config.ResolveCatalog(ref, catalogsDir)
	if err == nil {
		return catalog, nil
	}

	if template := filepath.Join(catalogsDir, ref+".xlsx"); utils.FileExists(template) {
		return loadTemplateCatalog(template)
	}
	return types.Catalog{}, err
}

func loadTemplateCatalog(path string) (types.Catalog, error) {
	file, err := xlsxparser.ParseCatalogTemplate(path)
	if err != nil {
		return types.Catalog{}, err
	}
	return config.BuildCatalog(*file)
}
