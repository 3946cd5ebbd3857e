package tabular

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "sheetsense/internal/errors"
)

func buildXLSX(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, axis, cell))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestLoad_XLSX(t *testing.T) {
	data := buildXLSX(t, [][]string{
		{"  CardCode ", "DocTotal"},
		{"A1", "100"},
		{"B2", "200"},
	})

	table, err := Load(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"cardcode", "doctotal"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "A1", table.Rows[0][0])
	assert.Equal(t, "200", table.Rows[1][1])
}

func TestLoad_CSV(t *testing.T) {
	data := []byte("CardCode,DocTotal\nA1,100\nB2,200\n")

	table, err := Load(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"cardcode", "doctotal"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "100", table.Rows[0][1])
}

func TestLoad_CSVRaggedRowsPadded(t *testing.T) {
	data := []byte("a,b,c\n1,2\n1,2,3,4\n")

	table, err := Load(data)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"1", "2", ""}, table.Rows[0], "short rows padded")
	assert.Equal(t, []string{"1", "2", "3"}, table.Rows[1], "long rows truncated")
}

func TestLoad_CSVHeaderOnly(t *testing.T) {
	table, err := Load([]byte("CardCode,DocTotal\n"))
	require.NoError(t, err)

	assert.True(t, table.Empty())
	assert.Equal(t, []string{"cardcode", "doctotal"}, table.Headers)
}

func TestLoad_EmptyInput(t *testing.T) {
	_, err := Load(nil)
	assertUnreadable(t, err)

	_, err = Load([]byte{})
	assertUnreadable(t, err)
}

func TestLoad_CorruptZipContainer(t *testing.T) {
	// Starts with the zip magic but is not a workbook.
	_, err := Load([]byte("PK\x03\x04 definitely not a workbook"))
	assertUnreadable(t, err)
}

func TestLoad_CorruptOLEContainer(t *testing.T) {
	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, []byte("junk")...)
	_, err := Load(data)
	assertUnreadable(t, err)
}

func TestNewTable_Normalization(t *testing.T) {
	table := NewTable([][]string{
		{" Vendor Name ", "TOTAL"},
		{" Acme Corp ", "10"},
	})

	assert.Equal(t, []string{"vendor name", "total"}, table.Headers)
	assert.Equal(t, " Acme Corp ", table.Rows[0][0], "cell values are never normalized")
}

func TestTable_HeaderIndex(t *testing.T) {
	table := NewTable([][]string{{"CardCode", "Total"}})

	assert.Equal(t, 0, table.HeaderIndex("CardCode"))
	assert.Equal(t, 1, table.HeaderIndex(" total "))
	assert.Equal(t, -1, table.HeaderIndex("missing"))
}

func assertUnreadable(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNREADABLE_TABLE", apiErr.ErrorCode)
	assert.Equal(t, 422, apiErr.StatusCode)
}
