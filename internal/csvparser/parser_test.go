package csvparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/types"
)

func defaultSettings() config.CSVSettings {
	return config.DefaultMainConfig().CSV
}

func TestParse_Semicolon(t *testing.T) {
	data := "Modèle;Qté;Type\nLatitude 5420;2;PC\n\nLatitude 5420;3;PC\n"

	table, err := Parse([]byte(data), defaultSettings())
	require.NoError(t, err)

	assert.Equal(t, ';', table.Delimiter)
	assert.Equal(t, "utf-8", table.Encoding)
	assert.Equal(t, "csv", table.Format)
	assert.Equal(t, []string{"Modèle", "Qté", "Type"}, table.Headers)
	require.Len(t, table.Rows, 2, "blank lines are dropped")

	assert.Equal(t, 1, table.Rows[0].ID)
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, 2, table.Rows[1].ID)
	assert.Equal(t, 4, table.Rows[1].Line, "line numbers count the skipped blank line")
	assert.Equal(t, types.Text("3"), table.Rows[1].Cell(1))
	assert.Empty(t, table.Issues)
}

func TestParse_PadAndTruncate(t *testing.T) {
	data := "a,b,c\n1,2\n1,2,3,4\n1,2,3,\n"

	table, err := Parse([]byte(data), defaultSettings())
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)

	for _, row := range table.Rows {
		assert.Len(t, row.Cells, 3)
	}
	assert.True(t, table.Rows[0].Cell(2).IsEmpty())
	assert.Equal(t, "3", table.Rows[1].Cell(2).String())

	require.Len(t, table.Issues, 2, "an empty trailing cell is not worth an issue")
	assert.Equal(t, 2, table.Issues[0].Row)
	assert.Equal(t, 3, table.Issues[1].Row)
	assert.Contains(t, table.Issues[1].String(), "Ligne 3")
}

func TestParse_BadQuoteIsSoft(t *testing.T) {
	settings := defaultSettings()
	settings.LazyQuotes = false
	data := "a,b\n1,2\n3,x\"y\n5,6\n"

	table, err := Parse([]byte(data), settings)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	require.Len(t, table.Issues, 1)
	assert.Equal(t, 3, table.Issues[0].Row)
}

func TestParse_HardFailures(t *testing.T) {
	_, err := Parse(nil, defaultSettings())
	assert.ErrorIs(t, err, types.ErrEmptyFile)

	_, err = Parse([]byte("\n\n , \n"), defaultSettings())
	assert.ErrorIs(t, err, types.ErrEmptyFile)

	_, err = Parse([]byte("a;b\n"), defaultSettings())
	assert.ErrorIs(t, err, types.ErrNotEnoughData)

	settings := defaultSettings()
	settings.Encoding = "klingon"
	_, err = Parse([]byte("a\n1\n"), settings)
	assert.ErrorIs(t, err, types.ErrUnreadable)
}

func TestParse_Encodings(t *testing.T) {
	latin, err := charmap.Windows1252.NewEncoder().String("Modèle;Quantité\nÉcran;2\n")
	require.NoError(t, err)

	table, err := Parse([]byte(latin), defaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", table.Encoding)
	assert.Equal(t, []string{"Modèle", "Quantité"}, table.Headers)
	assert.Equal(t, "Écran", table.Rows[0].Cell(0).String())

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("Modèle\tType\nA\tB\n")
	require.NoError(t, err)

	table, err = Parse([]byte(utf16), defaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "utf-16", table.Encoding)
	assert.Equal(t, '\t', table.Delimiter)
	assert.Equal(t, []string{"Modèle", "Type"}, table.Headers)

	table, err = Parse([]byte("\xEF\xBB\xBFModèle,Type\nA,B\n"), defaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "Modèle", table.Headers[0], "the BOM is not part of the first header")
}

func TestParse_DeclaredSettings(t *testing.T) {
	settings := defaultSettings()
	settings.Delimiter = "pipe"
	settings.Encoding = "iso-8859-15"

	data, err := charmap.ISO8859_15.NewEncoder().String("a|b,c\n€|2\n")
	require.NoError(t, err)

	table, err := Parse([]byte(data), settings)
	require.NoError(t, err)
	assert.Equal(t, '|', table.Delimiter)
	assert.Equal(t, []string{"a", "b,c"}, table.Headers)
	assert.Equal(t, "€", table.Rows[0].Cell(0).String())
}

func TestParse_IssueCap(t *testing.T) {
	settings := defaultSettings()
	settings.MaxIssues = 3

	var b strings.Builder
	b.WriteString("a,b,c\n")
	for i := 0; i < 10; i++ {
		b.WriteString("1\n")
	}

	table, err := Parse([]byte(b.String()), settings)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 10)
	require.Len(t, table.Issues, 4)
	assert.Contains(t, table.Issues[3].Message, "trop d'erreurs")
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{`"x;y;z",b,c`, ','},
		{"single", ','},
		{"a;b,c;d\n1,2,3,4,5,6", ';'},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectDelimiter(tt.line), tt.line)
	}
}

func TestCleanHeaders(t *testing.T) {
	got := CleanHeaders([]string{" Modèle ", "", "Type", "Type", "Type", "Type_2", ""})
	assert.Equal(t, []string{"Modèle", "Column_2", "Type", "Type_2", "Type_3", "Type_2_2", "Column_7"}, got)
}

func TestCleanHeaders_StripsByteOrderMark(t *testing.T) {
	got := CleanHeaders([]string{"\uFEFF Modèle", "\uFEFF"})
	assert.Equal(t, []string{"Modèle", "Column_2"}, got)
}

func TestDecode_DeclaredEncodingDropsByteOrderMark(t *testing.T) {
	text, name, err := Decode([]byte("\xEF\xBB\xBFModèle;Type\n"), "utf-8")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", name)
	assert.Equal(t, "Modèle;Type\n", text)
}
