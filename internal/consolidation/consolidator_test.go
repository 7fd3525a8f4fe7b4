package consolidation

import (
	"strconv"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

var fields = types.NewFieldSet(types.FieldModele, types.FieldType, types.FieldQuantite, types.FieldStatut)

func newRow(t *testing.T, id int, values map[types.FieldKey]types.Value) types.CanonicalRow {
	t.Helper()
	row := types.NewCanonicalRow(fields, id, id+1)
	for k, v := range values {
		require.NoError(t, row.Set(k, v))
	}
	return row
}

func TestConsolidate_SumsByModel(t *testing.T) {
	rows := []types.CanonicalRow{
		newRow(t, 1, map[types.FieldKey]types.Value{types.FieldModele: types.Text("Dell X280"), types.FieldQuantite: types.Number(2)}),
		newRow(t, 2, map[types.FieldKey]types.Value{types.FieldModele: types.Text("Dell X280"), types.FieldQuantite: types.Number(3)}),
	}

	result := Consolidate(rows, Options{GroupBy: []types.FieldKey{types.FieldModele}})

	require.Len(t, result.Groups, 1)
	g := result.Groups[0]
	assert.Equal(t, []string{"Dell X280"}, g.Key)
	assert.InDelta(t, 5, g.Quantity, 1e-9)
	assert.Equal(t, []int{1, 2}, g.OriginalIDs)
	assert.Equal(t, types.Number(5), g.Fields[types.FieldQuantite], "the quantity field holds the aggregate")
	assert.Empty(t, result.Skipped)
}

func TestConsolidate_DefaultsOrderAndSkips(t *testing.T) {
	rows := []types.CanonicalRow{
		newRow(t, 1, map[types.FieldKey]types.Value{types.FieldModele: types.Text("T14"), types.FieldType: types.Text("Ordinateur"), types.FieldQuantite: types.Text("4"), types.FieldStatut: types.Text("En service")}),
		newRow(t, 2, map[types.FieldKey]types.Value{types.FieldModele: types.Text("U2720Q"), types.FieldType: types.Text("Écran"), types.FieldQuantite: types.Number(1)}),
		newRow(t, 3, map[types.FieldKey]types.Value{types.FieldModele: types.Text("T14"), types.FieldQuantite: types.Number(9)}),
		newRow(t, 4, map[types.FieldKey]types.Value{types.FieldModele: types.Text(" T14 "), types.FieldType: types.Text("Ordinateur"), types.FieldQuantite: types.Text("beaucoup"), types.FieldStatut: types.Text("Hors service")}),
	}

	result := Consolidate(rows, Options{})

	require.Len(t, result.Groups, 2)
	assert.Equal(t, []string{"T14", "Ordinateur"}, result.Groups[0].Key)
	assert.Equal(t, []types.FieldKey{types.FieldModele, types.FieldType}, result.Groups[0].GroupBy)
	assert.Equal(t, "T14 / Ordinateur", result.Groups[0].KeyString())
	assert.InDelta(t, 4, result.Groups[0].Quantity, 1e-9, "unreadable quantities count as 0")
	assert.Equal(t, []int{1, 4}, result.Groups[0].OriginalIDs)
	assert.Equal(t, "En service", result.Groups[0].Fields[types.FieldStatut].String(), "fields come from the first member")

	assert.Equal(t, []string{"U2720Q", "Écran"}, result.Groups[1].Key)
	assert.Equal(t, []int{3}, result.Skipped)
	assert.InDelta(t, 5, result.TotalQuantity(), 1e-9)
}

func TestConsolidate_DoesNotModifyInput(t *testing.T) {
	row := newRow(t, 1, map[types.FieldKey]types.Value{types.FieldModele: types.Text("A"), types.FieldType: types.Text("B"), types.FieldQuantite: types.Number(2)})
	rows := []types.CanonicalRow{row, row.With(types.FieldQuantite, types.Number(3))}

	first := Consolidate(rows, Options{})
	second := Consolidate(rows, Options{})

	assert.Equal(t, first, second)
	assert.Equal(t, types.Number(2), rows[0].Get(types.FieldQuantite))
}

func TestConsolidate_ConservesRowsAndQuantities(t *testing.T) {
	faker := gofakeit.New(7)
	models := []string{"Latitude 5420", "ThinkPad T14", "OptiPlex 7090", ""}
	kinds := []string{"Ordinateur", "Écran", "Serveur"}

	for run := 0; run < 25; run++ {
		n := faker.Number(0, 60)
		rows := make([]types.CanonicalRow, n)
		var total float64
		for i := range rows {
			q := float64(faker.Number(0, 20))
			total += q
			rows[i] = newRow(t, i+1, map[types.FieldKey]types.Value{
				types.FieldModele:   types.Text(faker.RandomString(models)),
				types.FieldType:     types.Text(faker.RandomString(kinds)),
				types.FieldQuantite: types.Text(strconv.FormatFloat(q, 'f', -1, 64)),
			})
		}

		result := Consolidate(rows, Options{})

		seen := make(map[int]int)
		var grouped, skipped float64
		for _, g := range result.Groups {
			var sum float64
			for _, id := range g.OriginalIDs {
				seen[id]++
				q, _ := rows[id-1].Get(types.FieldQuantite).Float()
				sum += q
			}
			assert.InDelta(t, sum, g.Quantity, 1e-9)
			grouped += g.Quantity
		}
		for _, id := range result.Skipped {
			seen[id]++
			q, _ := rows[id-1].Get(types.FieldQuantite).Float()
			skipped += q
		}

		assert.Len(t, seen, n, "every row lands somewhere")
		for id, count := range seen {
			assert.Equal(t, 1, count, "row %d placed once", id)
		}
		assert.InDelta(t, total, grouped+skipped, 1e-9)
	}
}
