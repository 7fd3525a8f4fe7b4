// =============================================================================
// Inventory Import - Main Entry Point
// =============================================================================
//
// USAGE:
//   inventory-import process       - Process the inventory files of the input directory
//   inventory-import mapping FILE  - Show how the headers of a file are matched
//   inventory-import validate      - Check the configuration and the catalogs
//   inventory-import version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : the pipeline (parsers, matcher, validator, standardizer,
//                  consolidator) and its writers
//   - pkg/       : file management shared by the commands
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/inventory-import/cmd"
)

func main() {
	cmd.Execute()
}
