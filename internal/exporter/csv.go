// Package exporter writes analysis results to CSV for spreadsheet consumers.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"sheetsense/internal/analysis"
)

var totalsHeader = []string{"Source", "CardCode", "CardName", "TotalAmount"}

// TotalsWriter streams supplier totals from one or more analysis runs into a
// single CSV file.
type TotalsWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateTotalsWriter creates the output file, writes the UTF-8 BOM so Excel
// decodes it correctly, and emits the header row.
func CreateTotalsWriter(path string) (*TotalsWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(totalsHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return &TotalsWriter{file: file, writer: writer}, nil
}

// WriteResult appends one row per partner group. source labels where the
// table came from, typically the input file path. CardName is blank when no
// partner name column was detected.
func (t *TotalsWriter) WriteResult(source string, result *analysis.Result) error {
	for _, row := range result.SupplierTotals {
		name := ""
		if row.CardName != nil {
			name = *row.CardName
		}
		record := []string{
			source,
			row.CardCode,
			name,
			strconv.FormatFloat(row.TotalAmount, 'f', -1, 64),
		}
		if err := t.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the output file.
func (t *TotalsWriter) Close() error {
	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		t.file.Close()
		return err
	}
	return t.file.Close()
}
