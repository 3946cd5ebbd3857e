package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	apierrors "sheetsense/internal/errors"
)

// Magic bytes used to sniff the container format. Extension hints from
// clients are ignored; exports are routinely misnamed.
var (
	zipMagic = []byte{0x50, 0x4B} // "PK", xlsx is a zip container
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Load decodes raw spreadsheet bytes into a Table. The format is detected
// from content: zip containers decode as xlsx, OLE compound documents as
// legacy xls, anything else is attempted as CSV. Any decode failure maps to
// an unreadable-table error; the caller never sees format-specific errors.
func Load(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, apierrors.UnreadableTableError(fmt.Errorf("empty input"))
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return loadXLSX(data)
	case bytes.HasPrefix(data, oleMagic):
		return loadXLS(data)
	default:
		return loadCSV(data)
	}
}

// loadXLSX decodes an Office Open XML workbook using the first sheet that
// contains any rows.
func loadXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apierrors.UnreadableTableError(fmt.Errorf("open xlsx: %w", err))
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, apierrors.UnreadableTableError(fmt.Errorf("read sheet %s: %w", sheet, err))
		}
		if len(rows) > 0 {
			return NewTable(rows), nil
		}
	}

	return nil, apierrors.UnreadableTableError(fmt.Errorf("workbook has no non-empty sheet"))
}

// loadXLS decodes a legacy BIFF workbook using the first sheet that
// contains any rows.
func loadXLS(data []byte) (*Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apierrors.UnreadableTableError(fmt.Errorf("open xls: %w", err))
	}

	for i := range wb.GetSheets() {
		sheet, err := wb.GetSheet(i)
		if err != nil {
			return nil, apierrors.UnreadableTableError(fmt.Errorf("read sheet %d: %w", i, err))
		}

		var grid [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, cell.GetString())
			}
			grid = append(grid, cells)
		}
		if len(grid) > 0 {
			return NewTable(grid), nil
		}
	}

	return nil, apierrors.UnreadableTableError(fmt.Errorf("workbook has no non-empty sheet"))
}

// loadCSV decodes comma-separated text. Variable-width records are accepted
// and padded by NewTable.
func loadCSV(data []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var grid [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apierrors.UnreadableTableError(fmt.Errorf("parse csv: %w", err))
		}
		grid = append(grid, record)
	}

	if len(grid) == 0 {
		return nil, apierrors.UnreadableTableError(fmt.Errorf("csv has no rows"))
	}

	return NewTable(grid), nil
}
