package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVHeaderAndCoercion(t *testing.T) {
	columns, rows, err := ParseCSV(strings.NewReader("TblIdx,Name,Rate\n1,Foo,0.5\n2,Bar,1\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"tblidx", "name", "rate"}, columns)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{int64(1), "Foo", 0.5}, rows[0])
	assert.Equal(t, []any{int64(2), "Bar", int64(1)}, rows[1])
}

func TestParseCSVPadsShortRows(t *testing.T) {
	columns, rows, err := ParseCSV(strings.NewReader("tblidx,name,note\n1,Foo\n"))
	require.NoError(t, err)

	assert.Len(t, columns, 3)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{int64(1), "Foo", nil}, rows[0])
}

func TestParseCSVEmptyFieldIsNull(t *testing.T) {
	_, rows, err := ParseCSV(strings.NewReader("tblidx,name\n1,\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil}, rows[0])
}

func TestParseCSVRejectsWideRows(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("tblidx,name\n1,Foo,extra\n"))
	require.Error(t, err)
}

func TestParseCSVRejectsMalformedInput(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("tblidx,name\n\"unterminated\n"))
	require.Error(t, err)
}

func TestParseCSVRejectsEmptyInput(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestParseCSVRejectsBlankColumnName(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("tblidx,,name\n1,2,3\n"))
	require.Error(t, err)
}
