package parser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/studioops/funnelio/pkg/models"
)

// ReportType identifies which CRM export format a file is.
type ReportType string

const (
	LeadsReport  ReportType = "leads"
	BookedReport ReportType = "booked"
)

type Parser struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Parser {
	return &Parser{
		logger: logger,
	}
}

// ProcessBytes tokenizes a report file, detects its type and runs the
// matching importer against the caller's entity catalog. The filename is
// only a detection hint; header sniffing decides when the name is mute.
func (p *Parser) ProcessBytes(data []byte, filename string, catalog models.Catalog) (*models.ImportResult, error) {
	data, err := normalizeInput(data, filename)
	if err != nil {
		return nil, err
	}

	table := Tokenize(data)
	reportType := detectType(filename, table.Headers)
	p.logger.Debug("detected report type", "type", reportType, "filename", filename)

	switch reportType {
	case LeadsReport:
		return p.importLeads(table, catalog), nil
	case BookedReport:
		return p.importBooked(table, catalog), nil
	default:
		return nil, fmt.Errorf("unknown report type for %s", filename)
	}
}

// Import runs one importer explicitly, for callers that already know the
// report type (manifest entries, HTTP form fields).
func (p *Parser) Import(data []byte, reportType ReportType, filename string, catalog models.Catalog) (*models.ImportResult, error) {
	data, err := normalizeInput(data, filename)
	if err != nil {
		return nil, err
	}

	switch reportType {
	case LeadsReport:
		return p.ImportLeads(data, catalog), nil
	case BookedReport:
		return p.ImportBookedClients(data, catalog), nil
	default:
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}
}

// DetectReportType inspects a file's name and headers without importing it.
func (p *Parser) DetectReportType(data []byte, filename string) (ReportType, error) {
	data, err := normalizeInput(data, filename)
	if err != nil {
		return "", err
	}
	reportType := detectType(filename, Tokenize(data).Headers)
	if reportType == "" {
		return "", fmt.Errorf("unknown report type for %s", filename)
	}
	return reportType, nil
}

// detectType guesses the report format from the filename first and the
// header set second. A Booked-Client export always carries a booked-date
// column next to a project-type column; a Leads export carries a lead
// creation date.
func detectType(filename string, headers []string) ReportType {
	lowerFilename := strings.ToLower(filename)
	if strings.Contains(lowerFilename, "lead") {
		return LeadsReport
	}
	if strings.Contains(lowerFilename, "booked") || strings.Contains(lowerFilename, "client") {
		return BookedReport
	}

	columns := MapColumns(headers)
	if columns.Has(FieldBookedDate) && columns.Has(FieldProjectType) {
		return BookedReport
	}
	if columns.Has(FieldLeadCreated) {
		return LeadsReport
	}
	return ""
}

// newResult seeds an ImportResult with the caller's catalog so the output
// entity lists always contain pre-existing and newly proposed entries.
func newResult(catalog models.Catalog) *models.ImportResult {
	return &models.ImportResult{
		Bookings:     []models.Booking{},
		FunnelData:   []models.FunnelBucket{},
		ServiceTypes: append([]models.ServiceType{}, catalog.ServiceTypes...),
		LeadSources:  append([]models.LeadSource{}, catalog.LeadSources...),
		Errors:       []string{},
		Warnings:     []string{},
	}
}

// structuralAbort returns the empty result mandated for input with no
// header line: one error entry, nothing downstream attempted.
func structuralAbort(catalog models.Catalog, table *Table) *models.ImportResult {
	result := newResult(catalog)
	result.Errors = append(result.Errors, table.Errors...)
	return result
}
