package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets []string, rows map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows[name] {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_FirstSheet(t *testing.T) {
	path := createTestXLSX(t, []string{"Data"}, map[string][][]string{
		"Data": {
			{"iso_a3", "value"},
			{"USA", "10"},
			{"FRA", "20"},
		},
	})

	sheet, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"iso_a3", "value"}, sheet.Header)
	assert.Equal(t, [][]string{{"USA", "10"}, {"FRA", "20"}}, sheet.Rows)
}

func TestReadXLSX_ByName(t *testing.T) {
	path := createTestXLSX(t, []string{"Notes", "Values"}, map[string][][]string{
		"Notes":  {{"ignore me"}},
		"Values": {{"code", "v"}, {"JPN", "30"}},
	})

	sheet, err := ReadXLSX(path, XLSXOptions{SheetName: "Values"})
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "v"}, sheet.Header)
	assert.Equal(t, [][]string{{"JPN", "30"}}, sheet.Rows)
}

func TestReadXLSX_SheetNotFound(t *testing.T) {
	path := createTestXLSX(t, []string{"Sheet1"}, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_IndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, []string{"Sheet1"}, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}
