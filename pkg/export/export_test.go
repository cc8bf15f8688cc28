package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "User Ledger",
		Columns: []string{"Email", "Role", "Class"},
		Rows: [][]string{
			{"ada@example.com", "student", "HSC"},
			{"linus@example.com", "revoked", ""},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("pdf")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(FormatCSV, sampleTable())
	require.NoError(t, err)

	assert.Equal(t, "Email,Role,Class\nada@example.com,student,HSC\nlinus@example.com,revoked,\n", string(out))
}

func TestRenderCSVShortRowPadded(t *testing.T) {
	table := sampleTable()
	table.Rows = [][]string{{"only@example.com"}}

	out, err := Render(FormatCSV, table)
	require.NoError(t, err)
	assert.Equal(t, "Email,Role,Class\nonly@example.com,,\n", string(out))
}

func TestRenderPDF(t *testing.T) {
	out, err := Render(FormatPDF, sampleTable())
	require.NoError(t, err)

	require.Greater(t, len(out), 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderRequiresColumns(t *testing.T) {
	_, err := Render(FormatCSV, Table{})
	assert.Error(t, err)
}
