package xmlwriter

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

var testCatalog = types.Catalog{
	Name: "g4it",
	Fields: []types.FieldSpec{
		{Key: types.FieldModele, Required: true},
		{Key: types.FieldQuantite, Required: true, Type: types.TypeNumber, Min: types.Float64(0)},
		{Key: types.FieldType, Required: true},
		{Key: types.FieldStatut},
	},
}

func testGroups() []types.ConsolidatedGroup {
	return []types.ConsolidatedGroup{
		{
			Key:      []string{"Dell X280", "Ordinateur"},
			GroupBy:  []types.FieldKey{types.FieldModele, types.FieldType},
			Quantity: 5,
			Fields: map[types.FieldKey]types.Value{
				types.FieldModele:   types.Text("Dell X280"),
				types.FieldQuantite: types.Number(5),
				types.FieldType:     types.Text("Ordinateur"),
				types.FieldStatut:   types.Text("En service"),
			},
			OriginalIDs: []int{1, 4},
		},
		{
			Key:      []string{"U2720Q & co", "Écran"},
			GroupBy:  []types.FieldKey{types.FieldModele, types.FieldType},
			Quantity: 1.5,
			Fields: map[types.FieldKey]types.Value{
				types.FieldModele:   types.Text("U2720Q & co"),
				types.FieldQuantite: types.Number(1.5),
				types.FieldType:     types.Text("Écran"),
				"nombre":            types.Text("x"),
			},
			OriginalIDs: []int{2},
		},
	}
}

type parsedDoc struct {
	XMLName xml.Name `xml:"inventory"`
	Catalog string   `xml:"catalog,attr"`
	Groups  string   `xml:"groups,attr"`
	Group   []struct {
		N        string  `xml:"n,attr"`
		Key      string  `xml:"key,attr"`
		Modele   string  `xml:"modele"`
		Quantite string  `xml:"quantite"`
		Statut   *string `xml:"statut"`
		IDs      []int   `xml:"originalIds>id"`
	} `xml:"group"`
}

func TestGenerate(t *testing.T) {
	meta := Meta{
		Catalog:     testCatalog,
		SourceFile:  "parc.csv",
		SessionID:   "abc",
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	out, err := Generate(testGroups(), meta)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, xml.Header))
	assert.Contains(t, text, `generated="2026-03-01T10:00:00Z"`)
	assert.Contains(t, text, "<modele>U2720Q &amp; co</modele>")
	assert.Contains(t, text, "<nombre>x</nombre>", "fields outside the catalog are kept")

	var doc parsedDoc
	require.NoError(t, xml.Unmarshal(out, &doc))
	assert.Equal(t, "g4it", doc.Catalog)
	assert.Equal(t, "2", doc.Groups)
	require.Len(t, doc.Group, 2)

	assert.Equal(t, "1", doc.Group[0].N)
	assert.Equal(t, "Dell X280 / Ordinateur", doc.Group[0].Key)
	assert.Equal(t, "5", doc.Group[0].Quantite)
	assert.Equal(t, []int{1, 4}, doc.Group[0].IDs)
	require.NotNil(t, doc.Group[0].Statut)

	assert.Equal(t, "1.5", doc.Group[1].Quantite)
	assert.Nil(t, doc.Group[1].Statut, "empty optional fields are left out")
}

func TestGenerateWithOptions(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.IncludeXMLDeclaration = false
	opts.IncludeEmptyFields = true
	opts.RootElement = "parc"

	out, err := GenerateWithOptions(testGroups()[1:], Meta{Catalog: testCatalog}, opts)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "<parc "))
	assert.Contains(t, text, "<statut/>")
	assert.NotContains(t, text, "session=")
}

func TestGenerate_NoGroups(t *testing.T) {
	out, err := Generate(nil, Meta{Catalog: testCatalog})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<inventory catalog="g4it" groups="0"/>`)
}

func TestElementName(t *testing.T) {
	cases := map[string]string{
		"modele":          "modele",
		"date achat":      "date_achat",
		"2e_site":         "_2e_site",
		"prix-unitaire.1": "prix-unitaire.1",
		"":                "_",
	}
	for in, want := range cases {
		assert.Equal(t, want, ElementName(in), in)
	}
}

func TestGenerateXSD(t *testing.T) {
	out, err := GenerateXSD(testCatalog)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, `<xs:element name="modele" type="xs:string" minOccurs="1"/>`)
	assert.Contains(t, text, `<xs:element name="statut" type="xs:string" minOccurs="0"/>`)
	assert.Contains(t, text, `<xs:restriction base="xs:decimal">`)
	assert.Contains(t, text, `<xs:minInclusive value="0"/>`)
	assert.NotContains(t, text, "maxInclusive")

	var schema struct {
		XMLName xml.Name
	}
	require.NoError(t, xml.Unmarshal(out, &schema), "the schema is well-formed")
	assert.Equal(t, "schema", schema.XMLName.Local)
}
