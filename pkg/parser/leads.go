package parser

import (
	"fmt"

	"github.com/studioops/funnelio/pkg/funnel"
	"github.com/studioops/funnelio/pkg/models"
)

// ImportLeads consumes a Leads report. It only ever produces inquiry counts
// per inquiry month — plus, when the export happens to carry a booked-date
// column, closes and revenue attributed to the booked month, which may
// differ from the inquiry month. It never emits Booking records.
func (p *Parser) ImportLeads(data []byte, catalog models.Catalog) *models.ImportResult {
	return p.importLeads(Tokenize(data), catalog)
}

func (p *Parser) importLeads(table *Table, catalog models.Catalog) *models.ImportResult {
	if len(table.Headers) == 0 {
		return structuralAbort(catalog, table)
	}

	result := newResult(catalog)
	result.Errors = append(result.Errors, table.Errors...)

	columns := MapColumns(table.Headers)
	buckets := bucketMap{}

	for i, row := range table.Rows {
		rowNum := table.RowNums[i]
		safeRow(result, rowNum, func() {
			p.leadRow(result, buckets, columns, row, rowNum)
		})
	}

	result.FunnelData = funnel.RollupYTD(buckets.slice())
	p.logger.Info("leads import complete",
		"rows", len(table.Rows),
		"months", len(result.FunnelData),
		"warnings", len(result.Warnings),
		"errors", len(result.Errors))
	return result
}

func (p *Parser) leadRow(result *models.ImportResult, buckets bucketMap, columns ColumnMap, row RawRow, rowNum int) {
	name := columns.Get(row, FieldProjectName)
	if name == "" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: missing project name, row skipped", rowNum))
		return
	}

	createdCell := columns.Get(row, FieldLeadCreated)
	created, ok := ParseDate(createdCell)
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid inquiry date %q, row skipped", rowNum, createdCell))
		return
	}
	if created == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: missing inquiry date, row skipped", rowNum))
		return
	}

	buckets.at(*created).Inquiries++

	// A booked-date cell on a lead row means the inquiry already closed.
	// The close and its revenue land in the booked month's bucket, not the
	// inquiry month's.
	bookedCell := columns.Get(row, FieldBookedDate)
	if bookedCell == "" {
		return
	}
	booked, ok := ParseDate(bookedCell)
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid booked date %q, close not counted", rowNum, bookedCell))
		return
	}
	if booked == nil {
		return
	}

	cents, ok := ParseCents(columns.Get(row, FieldRevenue))
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid revenue %q, using 0", rowNum, columns.Get(row, FieldRevenue)))
	}

	bucket := buckets.at(*booked)
	bucket.Closes++
	bucket.RevenueCents += cents
}
