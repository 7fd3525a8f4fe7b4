package converter

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/types"
)

func newStandardizer(t *testing.T) *Standardizer {
	t.Helper()
	s, err := NewStandardizer(g4it(t), config.DefaultVocabulary())
	require.NoError(t, err)
	return s
}

func TestStandardizer_Status(t *testing.T) {
	s := newStandardizer(t)

	cases := []struct {
		in, want string
	}{
		{"  ACTIF ", "En service"},
		{"", "En service"},
		{"N/A", "En service"},
		{"hors service", "Hors service"},
		{"Inactif", "Hors service"},
		{"en réparation", "en réparation"},
		{"En service", "En service"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, s.Status(types.Text(c.in)).String(), c.in)
	}
}

func TestStandardizer_Category(t *testing.T) {
	s := newStandardizer(t)

	assert.Equal(t, "Ordinateur", s.Category(types.Text("PC")).String())
	assert.Equal(t, "Écran", s.Category(types.Text("écran")).String())
	assert.Equal(t, "Écran", s.Category(types.Text("Moniteur")).String())
	assert.Equal(t, "Routeur", s.Category(types.Text("Routeur")).String())
	assert.True(t, s.Category(types.Empty()).IsEmpty())
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, types.Number(3), Quantity(types.Text(" 3 ")))
	assert.Equal(t, types.Number(2.5), Quantity(types.Text("2.5")))
	assert.Equal(t, types.Number(0), Quantity(types.Text("beaucoup")))
	assert.Equal(t, types.Number(0), Quantity(types.Empty()))
	assert.Equal(t, types.Number(7), Quantity(types.Number(7)))
}

func TestStandardizer_OnlyPresentFields(t *testing.T) {
	s := newStandardizer(t)
	row := types.NewCanonicalRow(types.NewFieldSet(types.FieldModele, types.FieldStatut), 1, 2)
	require.NoError(t, row.Set(types.FieldModele, types.Text("actif")))

	out := s.StandardizeRow(row)
	assert.Equal(t, "actif", out.Get(types.FieldModele).String(), "only role fields change")
	assert.False(t, out.Has(types.FieldStatut), "absent fields stay absent")
}

func TestStandardizer_Idempotent(t *testing.T) {
	s := newStandardizer(t)
	faker := gofakeit.New(3)
	fields := g4it(t).FieldSet()

	statuses := []string{"actif", "ACTIF", "", "n/a", "Hors service", "en panne", "In Service"}
	kinds := []string{"pc", "Laptop", "moniteur", "Écran", "server", "tablette", ""}
	quantities := []string{"1", " 4 ", "2.5", "", "x", "-3"}

	rows := make([]types.CanonicalRow, 200)
	for i := range rows {
		row := types.NewCanonicalRow(fields, i+1, i+2)
		require.NoError(t, row.Set(types.FieldStatut, types.Text(faker.RandomString(statuses))))
		require.NoError(t, row.Set(types.FieldType, types.Text(faker.RandomString(kinds))))
		require.NoError(t, row.Set(types.FieldQuantite, types.Text(faker.RandomString(quantities))))
		rows[i] = row
	}

	before := rows[0].Clone()
	once := s.Standardize(rows)
	twice := s.Standardize(once)
	require.Len(t, twice, len(once))
	for i := range once {
		assert.True(t, once[i].Equal(twice[i]), "row %d", i+1)
	}

	assert.True(t, rows[0].Equal(before), "input rows are not modified")
}

func TestNewStandardizer_RejectsUnstableDefaultStatus(t *testing.T) {
	for _, def := range []string{"Actif", "en service", "N/A"} {
		vocab := config.DefaultVocabulary()
		vocab.DefaultStatus = def

		_, err := NewStandardizer(g4it(t), vocab)
		assert.Error(t, err, def)
	}
}

func TestStandardizer_CustomDefaultStatusIsStable(t *testing.T) {
	for _, def := range []string{"Hors service", "À vérifier"} {
		vocab := config.DefaultVocabulary()
		vocab.DefaultStatus = def

		s, err := NewStandardizer(g4it(t), vocab)
		require.NoError(t, err, def)

		once := s.Status(types.Empty())
		assert.Equal(t, def, once.String())
		assert.Equal(t, once, s.Status(once), def)
	}
}
