package parser

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/studioops/funnelio/pkg/funnel"
	"github.com/studioops/funnelio/pkg/models"
)

// Fallback entities synthesized when a row names nothing and the caller's
// catalog is empty.
const (
	DefaultServiceType = "General Service"
	DefaultLeadSource  = "Direct"
)

// ImportBookedClients consumes a Booked-Client report. The export writes one
// row per project contact, so rows are collapsed to one Booking per project
// via the dedup key; ServiceTypes and LeadSources named by rows but absent
// from the catalog are proposed as new entities. Funnel output is closes and
// revenue only, never inquiries.
func (p *Parser) ImportBookedClients(data []byte, catalog models.Catalog) *models.ImportResult {
	return p.importBooked(Tokenize(data), catalog)
}

func (p *Parser) importBooked(table *Table, catalog models.Catalog) *models.ImportResult {
	if len(table.Headers) == 0 {
		return structuralAbort(catalog, table)
	}

	result := newResult(catalog)
	result.Errors = append(result.Errors, table.Errors...)

	columns := MapColumns(table.Headers)
	buckets := bucketMap{}
	seen := map[string]bool{}

	serviceTypes := newEntitySet(result.ServiceTypes, func(e models.ServiceType) (string, string) { return e.ID, e.Name })
	leadSources := newEntitySet(result.LeadSources, func(e models.LeadSource) (string, string) { return e.ID, e.Name })

	for i, row := range table.Rows {
		rowNum := table.RowNums[i]
		safeRow(result, rowNum, func() {
			p.bookedRow(result, buckets, seen, serviceTypes, leadSources, columns, row, rowNum)
		})
	}

	result.ServiceTypes = serviceTypes.entries
	result.LeadSources = leadSources.entries
	result.FunnelData = funnel.RollupYTD(buckets.slice())
	p.logger.Info("booked-client import complete",
		"rows", len(table.Rows),
		"bookings", len(result.Bookings),
		"months", len(result.FunnelData),
		"warnings", len(result.Warnings),
		"errors", len(result.Errors))
	return result
}

func (p *Parser) bookedRow(result *models.ImportResult, buckets bucketMap, seen map[string]bool,
	serviceTypes *entitySet[models.ServiceType], leadSources *entitySet[models.LeadSource],
	columns ColumnMap, row RawRow, rowNum int) {

	name := columns.Get(row, FieldProjectName)
	if name == "" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: missing project name, row skipped", rowNum))
		return
	}

	bookedCell := columns.Get(row, FieldBookedDate)
	booked, ok := ParseDate(bookedCell)
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid booked date %q, row skipped", rowNum, bookedCell))
		return
	}
	if booked == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: missing booked date, row skipped", rowNum))
		return
	}

	// One row per contact is expected from the export; only the first row
	// for a project survives, the rest are dropped without a warning.
	dedupKey := strings.ToLower(name) + "-" + booked.Format("2006-01-02")
	if seen[dedupKey] {
		p.logger.Debug("duplicate project row dropped", "row", rowNum, "key", dedupKey)
		return
	}
	seen[dedupKey] = true

	serviceTypeID := serviceTypes.resolve(columns.Get(row, FieldProjectType), DefaultServiceType,
		func(id, name string, custom bool) models.ServiceType {
			return models.ServiceType{ID: id, Name: name, IsCustom: custom}
		})
	leadSourceID := leadSources.resolve(columns.Get(row, FieldLeadSource), DefaultLeadSource,
		func(id, name string, custom bool) models.LeadSource {
			return models.LeadSource{ID: id, Name: name, IsCustom: custom}
		})

	revenueCell := columns.Get(row, FieldRevenue)
	cents, ok := ParseCents(revenueCell)
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid revenue %q, using 0", rowNum, revenueCell))
	}

	inquired, ok := ParseDate(columns.Get(row, FieldLeadCreated))
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid created date %q, using null", rowNum, columns.Get(row, FieldLeadCreated)))
	}
	projectDate, ok := ParseDate(columns.Get(row, FieldProjectDate))
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid project date %q, using null", rowNum, columns.Get(row, FieldProjectDate)))
	}

	status := columns.Get(row, FieldStatus)
	if status == "" {
		status = "booked"
	}

	result.Bookings = append(result.Bookings, models.Booking{
		ID:            uuid.NewString(),
		ProjectName:   name,
		ServiceTypeID: serviceTypeID,
		LeadSourceID:  leadSourceID,
		DateInquired:  inquired,
		DateBooked:    booked,
		ProjectDate:   projectDate,
		RevenueCents:  cents,
		Status:        status,
		Notes:         columns.Get(row, FieldNotes),
	})

	bucket := buckets.at(*booked)
	bucket.Closes++
	bucket.RevenueCents += cents
}

// entitySet threads the (name → id, ordered output) pair through row
// processing. It is local to one import call; nothing outside the call is
// mutated.
type entitySet[T any] struct {
	byName  map[string]string
	ids     []string
	entries []T
}

func newEntitySet[T any](existing []T, key func(T) (id, name string)) *entitySet[T] {
	s := &entitySet[T]{
		byName:  make(map[string]string, len(existing)),
		ids:     make([]string, 0, len(existing)),
		entries: existing,
	}
	for _, e := range existing {
		id, name := key(e)
		s.byName[strings.ToLower(strings.TrimSpace(name))] = id
		s.ids = append(s.ids, id)
	}
	return s
}

// resolve returns the id for a raw cell value, creating a new custom entity
// on first sight. A blank cell falls back to the first known entity, or to a
// synthesized default when the set is empty.
func (s *entitySet[T]) resolve(raw, fallback string, build func(id, name string, custom bool) T) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		if len(s.ids) > 0 {
			return s.ids[0]
		}
		return s.create(fallback, false, build)
	}
	if id, ok := s.byName[strings.ToLower(name)]; ok {
		return id
	}
	return s.create(name, true, build)
}

func (s *entitySet[T]) create(name string, custom bool, build func(id, name string, custom bool) T) string {
	id := uuid.NewString()
	s.byName[strings.ToLower(name)] = id
	s.ids = append(s.ids, id)
	s.entries = append(s.entries, build(id, name, custom))
	return id
}
