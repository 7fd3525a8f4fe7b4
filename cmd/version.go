// =============================================================================
// Inventory Import - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   inventory-import version
//
// OUTPUT:
//   Inventory Import
//   Version:    1.0.0
//   Build Date: 2024-01-01
//   Go Version: go1.24.0
//   Catalogs:   [g4it generic]
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/inventory-import/internal/config"
)

// These variables are set at build time using ldflags:
//   go build -ldflags "-X 'github.com/ginjaninja78/inventory-import/cmd.Version=1.0.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, Go runtime version and built-in catalogs.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Inventory Import")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "Catalogs:   %v\n", config.BuiltinCatalogNames())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
