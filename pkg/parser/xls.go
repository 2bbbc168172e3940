package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

const maxSheetRows = 100000

// normalizeInput converts legacy .xls exports into the comma-separated text
// the tokenizer consumes. CSV input passes through untouched.
func normalizeInput(data []byte, filename string) ([]byte, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xls") {
		return sheetToCSV(data)
	}
	return data, nil
}

// sheetToCSV flattens the first sheet of an XLS workbook into CSV bytes so
// both report importers work unchanged on spreadsheet exports.
func sheetToCSV(data []byte) ([]byte, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error creating workbook: %w", err)
	}

	rows := workbook.ReadAllCells(maxSheetRows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in sheet")
	}

	// Sheets pad rows unevenly; normalize every row to the header width so
	// the tokenizer does not flag short rows the spreadsheet lib truncated.
	width := len(rows[0])
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		if len(row) > width {
			row = row[:width]
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("error rewriting sheet row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
