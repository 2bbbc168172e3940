package parser

import "strings"

// Field is a semantic column the importers care about. Each field carries a
// priority-ordered alias list; the actual header text varies between CRM
// export versions, so resolution is fuzzy rather than schema-bound.
type Field string

const (
	FieldProjectName Field = "project_name"
	FieldLeadCreated Field = "lead_created_date"
	FieldBookedDate  Field = "booked_date"
	FieldProjectDate Field = "project_date"
	FieldProjectType Field = "project_type"
	FieldLeadSource  Field = "lead_source"
	FieldRevenue     Field = "revenue"
	FieldStatus      Field = "status"
	FieldNotes       Field = "notes"
)

// fieldAliases lists candidate header names per field, highest priority
// first. Matching is case-insensitive, exact or substring.
var fieldAliases = map[Field][]string{
	FieldProjectName: {"project name", "lead name", "client name", "name"},
	FieldLeadCreated: {"lead created date", "inquiry date", "date inquired", "created date", "created"},
	FieldBookedDate:  {"booked date", "date booked", "booking date", "signed date"},
	FieldProjectDate: {"project date", "event date", "session date"},
	FieldProjectType: {"project type", "service type", "event type", "type"},
	FieldLeadSource:  {"project source", "lead source", "referral source", "source"},
	FieldRevenue:     {"project value", "booked revenue", "total value", "amount", "value", "total"},
	FieldStatus:      {"project status", "status", "stage"},
	FieldNotes:       {"notes", "note", "comments"},
}

// ColumnMap maps each semantic field to the resolved header for one file.
// Unresolved fields are simply absent; that is not an error by itself.
type ColumnMap map[Field]string

// Resolve picks the header matching the highest-priority alias. The first
// alias that matches any header wins; when several headers match that alias,
// the leftmost column in the file wins.
func Resolve(headers []string, aliases []string) (string, bool) {
	for _, alias := range aliases {
		alias = strings.ToLower(alias)
		for _, h := range headers {
			lower := strings.ToLower(strings.TrimSpace(h))
			if lower == alias || strings.Contains(lower, alias) {
				return h, true
			}
		}
	}
	return "", false
}

// MapColumns resolves every semantic field against the file's headers.
func MapColumns(headers []string) ColumnMap {
	m := make(ColumnMap, len(fieldAliases))
	for field, aliases := range fieldAliases {
		if header, ok := Resolve(headers, aliases); ok {
			m[field] = header
		}
	}
	return m
}

// Get returns the trimmed cell for a semantic field, or "" when the field
// did not resolve for this file or the cell is empty.
func (m ColumnMap) Get(row RawRow, field Field) string {
	header, ok := m[field]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[header])
}

// Has reports whether the field resolved to a header in this file.
func (m ColumnMap) Has(field Field) bool {
	_, ok := m[field]
	return ok
}
