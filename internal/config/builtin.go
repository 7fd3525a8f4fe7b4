package config

import (
	"fmt"
	"sort"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

// =============================================================================
// BUILT-IN CATALOGS
// =============================================================================
// Two target schemas are in use: the G4IT physical equipment schema, with
// French keys, and a short generic one. Neither is the default by nature;
// the main config picks one.

var builtinCatalogs = map[string]CatalogFile{
	"g4it": {
		Name:    "g4it",
		GroupBy: []string{"modele", "type"},
		Fields: []FieldConfig{
			{Key: "nomEquipementPhysique", Label: "Nom de l'équipement", Required: true, Type: "string", Severity: "critique",
				Description: "Nom ou référence de l'équipement physique", Suggestion: "Ajoutez un nom d'équipement"},
			{Key: "modele", Label: "Modèle", Required: true, Type: "string", Severity: "critique",
				Description: "Modèle ou catégorie de l'équipement", Suggestion: "Renseignez le modèle de l'équipement"},
			{Key: "quantite", Label: "Quantité", Required: true, Type: "number", Min: types.Float64(1), Severity: "critique",
				Description: "Nombre d'unités de cet équipement", SuggestionFunc: "quantity", Role: "quantity"},
			{Key: "nomCourtDatacenter", Label: "Datacenter", Required: true, Type: "string", Severity: "critique",
				Description: "Identifiant du datacenter hébergeant l'équipement", Suggestion: "Renseignez le nom court du datacenter (ex: DC-PARIS)"},
			{Key: "type", Label: "Type", Required: true, Type: "string", Severity: "critique",
				Description: "Type d'équipement", Suggestion: "Choisissez un type d'équipement (ex: Ordinateur, Écran, Serveur)", Role: "category"},
			{Key: "statut", Label: "Statut", Required: true, Type: "string", Severity: "mineure",
				Description: "État actuel de l'équipement", Suggestion: "Renseignez 'En service' par défaut", Role: "status"},
			{Key: "paysDUtilisation", Label: "Pays d'utilisation", Required: true, Type: "string", Severity: "mineure",
				Description: "Pays où l'équipement est utilisé", Suggestion: "Renseignez le pays d'utilisation (ex: France)"},
			{Key: "dateAchat", Label: "Date d'achat", Type: "date", Format: "iso-date", Severity: "mineure",
				Description: "Date d'acquisition de l'équipement", SuggestionFunc: "iso-date"},
			{Key: "dateRetrait", Label: "Date de retrait", Type: "date", Format: "iso-date", Severity: "mineure",
				Description: "Date de mise hors service prévue ou effective", SuggestionFunc: "iso-date"},
			{Key: "dureeUsageInterne", Label: "Durée d'usage interne", Type: "number", Min: types.Float64(0), Severity: "mineure",
				Description: "Durée d'utilisation interne en mois", Suggestion: "Indiquez une durée en mois (ex: 36)"},
			{Key: "consoElecAnnuelle", Label: "Consommation électrique annuelle", Type: "number", Min: types.Float64(0), Severity: "mineure",
				Description: "Consommation électrique annuelle en kWh", Suggestion: "Indiquez une consommation en kWh (ex: 2450.75)"},
			{Key: "utilisateur", Label: "Utilisateur", Type: "string", Severity: "mineure",
				Description: "Service ou personne utilisant l'équipement"},
			{Key: "nomEntite", Label: "Entité", Type: "string", Severity: "mineure",
				Description: "Entité responsable de l'équipement"},
		},
	},
	"generic": {
		Name:    "generic",
		GroupBy: []string{"model", "equipmentType"},
		Fields: []FieldConfig{
			{Key: "equipmentType", Label: "Type d'équipement", Required: true, Type: "string", Severity: "critique",
				Suggestion: "Choisissez un type d'équipement (ex: Ordinateur, Écran, Serveur)", Role: "category"},
			{Key: "manufacturer", Label: "Fabricant", Required: true, Type: "string", Severity: "critique",
				Suggestion: "Renseignez le fabricant (ex: Dell)"},
			{Key: "model", Label: "Modèle", Required: true, Type: "string", Severity: "critique",
				Suggestion: "Renseignez le modèle de l'équipement"},
			{Key: "quantity", Label: "Quantité", Required: true, Type: "number", Min: types.Float64(1), Severity: "critique",
				SuggestionFunc: "quantity", Role: "quantity"},
			{Key: "status", Label: "Statut", Type: "string", Severity: "mineure",
				Suggestion: "Renseignez 'En service' par défaut", Role: "status"},
			{Key: "purchaseDate", Label: "Date d'achat", Type: "date", Format: "iso-date", Severity: "mineure",
				SuggestionFunc: "iso-date"},
		},
	},
}

// BuiltinCatalogNames lists the built-in catalogs.
func BuiltinCatalogNames() []string {
	names := make([]string, 0, len(builtinCatalogs))
	for name := range builtinCatalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinCatalogFile returns the definition of a built-in catalog, for
// callers that want to customize it before building.
func BuiltinCatalogFile(name string) (CatalogFile, bool) {
	f, ok := builtinCatalogs[name]
	if !ok {
		return CatalogFile{}, false
	}
	f.Fields = append([]FieldConfig(nil), f.Fields...)
	f.GroupBy = append([]string(nil), f.GroupBy...)
	return f, true
}

// BuiltinCatalog builds a built-in catalog by name.
func BuiltinCatalog(name string) (types.Catalog, error) {
	f, ok := BuiltinCatalogFile(name)
	if !ok {
		return types.Catalog{}, fmt.Errorf("unknown catalog %q (built-in catalogs: %v)", name, BuiltinCatalogNames())
	}
	return BuildCatalog(f)
}

// =============================================================================
// DEFAULT VOCABULARY
// =============================================================================

// DefaultVocabulary returns the standardization tables used when the config
// does not define its own.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		DefaultStatus: "En service",
		EmptyStatuses: []string{"n/a", "na", "non applicable", "-"},
		Statuses: []SynonymSet{
			{Label: "En service", Synonyms: []string{"actif", "active", "en activité", "fonctionnel", "en fonction", "in service"}},
			{Label: "Hors service", Synonyms: []string{"inactif", "inactive", "non fonctionnel", "out of service"}},
		},
		Types: []SynonymSet{
			{Label: "Ordinateur", Synonyms: []string{"pc", "ordinateur", "laptop", "desktop", "portable", "computer"}},
			{Label: "Écran", Synonyms: []string{"ecran", "moniteur", "display", "monitor"}},
			{Label: "Serveur", Synonyms: []string{"serveur", "server"}},
			{Label: "Imprimante", Synonyms: []string{"imprimante", "printer"}},
			{Label: "Téléphone", Synonyms: []string{"telephone", "phone", "smartphone", "mobile"}},
		},
	}
}
