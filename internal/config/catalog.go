package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/inventory-import/internal/types"
	"github.com/ginjaninja78/inventory-import/internal/validation"
)

// =============================================================================
// CATALOG FILE STRUCTURE
// =============================================================================

// CatalogFile is the on-disk form of a field catalog.
//
// EXAMPLE:
//
//	name: g4it
//	group_by: [modele, type]
//	fields:
//	  - key: quantite
//	    label: Quantité
//	    required: true
//	    type: number
//	    min: 1
//	    role: quantity
//	    suggestion_func: quantity
type CatalogFile struct {
	Name    string        `yaml:"name"`
	GroupBy []string      `yaml:"group_by"`
	Fields  []FieldConfig `yaml:"fields"`
}

// FieldConfig is one field of a CatalogFile. Format and SuggestionFunc are
// names resolved through the validation package.
type FieldConfig struct {
	Key            string   `yaml:"key"`
	Label          string   `yaml:"label"`
	Description    string   `yaml:"description"`
	Required       bool     `yaml:"required"`
	Type           string   `yaml:"type"`
	Min            *float64 `yaml:"min"`
	Max            *float64 `yaml:"max"`
	Format         string   `yaml:"format"`
	Severity       string   `yaml:"severity"`
	Suggestion     string   `yaml:"suggestion"`
	SuggestionFunc string   `yaml:"suggestion_func"`
	Message        string   `yaml:"message"`
	Role           string   `yaml:"role"`
}

// =============================================================================
// CATALOG LOADING
// =============================================================================

// LoadCatalog loads and builds a single catalog file.
func LoadCatalog(filePath string) (types.Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return types.Catalog{}, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.Catalog{}, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if file.Name == "" {
		file.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	return BuildCatalog(file)
}

// LoadCatalogs loads every YAML catalog of a directory.
//
// RETURNS:
//   - The catalogs keyed by name. A missing directory yields an empty map.
//   - An error if any file cannot be loaded or two files share a name.
func LoadCatalogs(catalogsDir string) (map[string]types.Catalog, error) {
	catalogs := make(map[string]types.Catalog)

	if _, err := os.Stat(catalogsDir); os.IsNotExist(err) {
		return catalogs, nil
	}

	files, err := filepath.Glob(filepath.Join(catalogsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(catalogsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	for _, file := range files {
		catalog, err := LoadCatalog(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		if _, dup := catalogs[catalog.Name]; dup {
			return nil, fmt.Errorf("catalog %q is defined twice (%s)", catalog.Name, file)
		}
		catalogs[catalog.Name] = catalog
	}

	return catalogs, nil
}

// BuildCatalog turns a CatalogFile into a validated catalog.
func BuildCatalog(file CatalogFile) (types.Catalog, error) {
	catalog := types.Catalog{Name: file.Name}

	for _, k := range file.GroupBy {
		catalog.GroupBy = append(catalog.GroupBy, types.FieldKey(strings.TrimSpace(k)))
	}

	for _, fc := range file.Fields {
		spec, err := buildFieldSpec(fc)
		if err != nil {
			return types.Catalog{}, fmt.Errorf("%w: field %q: %v", types.ErrInvalidCatalog, fc.Key, err)
		}
		catalog.Fields = append(catalog.Fields, spec)
	}

	if err := catalog.Validate(); err != nil {
		return types.Catalog{}, err
	}

	return catalog, nil
}

func buildFieldSpec(fc FieldConfig) (types.FieldSpec, error) {
	spec := types.FieldSpec{
		Key:            types.FieldKey(strings.TrimSpace(fc.Key)),
		Label:          fc.Label,
		Description:    fc.Description,
		Required:       fc.Required,
		Type:           normalizeValueType(fc.Type),
		Min:            fc.Min,
		Max:            fc.Max,
		FormatName:     fc.Format,
		Severity:       types.Severity(strings.ToLower(strings.TrimSpace(fc.Severity))),
		Suggestion:     fc.Suggestion,
		SuggestionName: fc.SuggestionFunc,
		Message:        fc.Message,
		Role:           types.FieldRole(strings.ToLower(strings.TrimSpace(fc.Role))),
	}

	if fc.Format != "" {
		format, err := validation.FormatByName(fc.Format)
		if err != nil {
			return spec, err
		}
		spec.Format = format
	}

	if fc.SuggestionFunc != "" {
		suggest, err := validation.SuggesterByName(fc.SuggestionFunc)
		if err != nil {
			return spec, err
		}
		spec.SuggestionFunc = suggest
	}

	return spec, nil
}

// normalizeValueType accepts the spellings found in existing schema files.
func normalizeValueType(t string) types.ValueType {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "":
		return ""
	case "string", "text", "texte":
		return types.TypeString
	case "number", "numeric", "integer", "int", "decimal", "float", "nombre":
		return types.TypeNumber
	case "date":
		return types.TypeDate
	case "email", "mail":
		return types.TypeEmail
	default:
		return types.ValueType(t)
	}
}

// ResolveCatalog finds the catalog named by ref:
//   - a path to a YAML file,
//   - the name of a catalog in catalogsDir,
//   - or a built-in name.
//
// XLSX templates are handled by the caller through the xlsxparser package.
func ResolveCatalog(ref, catalogsDir string) (types.Catalog, error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".yaml", ".yml":
		return LoadCatalog(ref)
	}

	catalogs, err := LoadCatalogs(catalogsDir)
	if err != nil {
		return types.Catalog{}, err
	}
	if c, ok := catalogs[ref]; ok {
		return c, nil
	}

	return BuiltinCatalog(ref)
}
