// Package tabular picks the parser for an uploaded file from its extension.
package tabular

import (
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/csvparser"
	"github.com/ginjaninja78/inventory-import/internal/types"
	"github.com/ginjaninja78/inventory-import/internal/xlsxparser"
)

// Extensions lists the file extensions Parse accepts, lower case.
var Extensions = []string{".csv", ".txt", ".tsv", ".xlsx", ".xlsm"}

// Supported reports whether fileName has an extension Parse accepts.
func Supported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Parse reads data as the format its file name announces. The format is
// checked before the bytes are looked at.
func Parse(data []byte, fileName string, settings config.CSVSettings) (*types.Table, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	switch ext {
	case ".csv", ".txt", ".tsv":
		if len(data) == 0 {
			return nil, types.ErrEmptyFile
		}
		if ext == ".tsv" && settings.Delimiter == "" {
			settings.Delimiter = "tab"
		}
		return csvparser.Parse(data, settings)

	case ".xlsx", ".xlsm":
		if len(data) == 0 {
			return nil, types.ErrEmptyFile
		}
		return xlsxparser.Parse(data)

	default:
		return nil, types.ErrUnsupportedFormat
	}
}
