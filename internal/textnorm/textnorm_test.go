package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/inventory-import/internal/textnorm"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Nom équipement", "nomequipement"},
		{"  Qté ", "qte"},
		{"Date d'achat", "datedachat"},
		{"PAYS_D'UTILISATION", "paysdutilisation"},
		{"nomCourtDatacenter", "nomcourtdatacenter"},
		{"Modèle (réf.)", "modeleref"},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, textnorm.Header(tt.in))
		})
	}
}

func TestValue(t *testing.T) {
	assert.Equal(t, "en activite", textnorm.Value("  En   Activité "))
	assert.Equal(t, "ecran", textnorm.Value("ÉCRAN"))
	assert.Equal(t, "hors service", textnorm.Value("hors\tservice"))
	assert.Equal(t, "", textnorm.Value(" "))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, textnorm.Levenshtein("statut", "statut"))
	assert.Equal(t, 3, textnorm.Levenshtein("kitten", "sitting"))
	assert.Equal(t, 5, textnorm.Levenshtein("qte", "quantite"))
	assert.Equal(t, 4, textnorm.Levenshtein("", "type"))
	assert.Equal(t, 1, textnorm.Levenshtein("écran", "ecran"))
}

func TestIsSubsequence(t *testing.T) {
	assert.True(t, textnorm.IsSubsequence("qte", "quantite"))
	assert.True(t, textnorm.IsSubsequence("", "x"))
	assert.False(t, textnorm.IsSubsequence("tq", "quantite"))
	assert.False(t, textnorm.IsSubsequence("typex", "type"))
}
