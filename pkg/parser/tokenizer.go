package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeaders is the structural error text returned for input with no
// header line. Callers treat it as import-abort.
const ErrNoHeaders = "No headers found in CSV file"

// RawRow is one data line of a report, keyed by header text. Header order is
// kept separately on Table so resolution can break ties by column position.
type RawRow map[string]string

// Table is the tokenized form of one report file: a header row plus one
// RawRow per non-empty data line. RowNums carries the 1-based source data
// row for each surviving RawRow; rows the tokenizer drops still consume a
// number, so importer messages always cite the row as it appears in the
// file. Errors holds per-line parse issues that did not stop the rest of
// the file from being read.
type Table struct {
	Headers []string
	Rows    []RawRow
	RowNums []int
	Errors  []string
}

// Tokenize splits raw comma-separated text into a Table. A line whose field
// count disagrees with the header count is recorded as a row-level error and
// skipped; subsequent lines are still processed.
func Tokenize(data []byte) *Table {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // validate counts manually so one bad line cannot abort the file

	t := &Table{}

	headers, err := r.Read()
	if err != nil || len(headers) == 0 || (len(headers) == 1 && strings.TrimSpace(headers[0]) == "") {
		t.Errors = append(t.Errors, ErrNoHeaders)
		return t
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	t.Headers = headers

	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Errors = append(t.Errors, fmt.Sprintf("row %d: %v", line-1, err))
			continue
		}
		if isBlankRecord(record) {
			continue
		}
		if len(record) != len(headers) {
			t.Errors = append(t.Errors, fmt.Sprintf("row %d: expected %d fields, got %d", line-1, len(headers), len(record)))
			continue
		}
		row := make(RawRow, len(headers))
		for i, h := range headers {
			row[h] = strings.TrimSpace(record[i])
		}
		t.Rows = append(t.Rows, row)
		t.RowNums = append(t.RowNums, line-1)
	}

	return t
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
