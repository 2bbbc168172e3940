package models

import "time"

// ServiceType is a kind of work a studio books (wedding, portrait, ...).
// Entities proposed during an import carry IsCustom=true until persisted.
type ServiceType struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsCustom bool   `json:"is_custom"`
}

// LeadSource is where an inquiry came from (Instagram, referral, ...).
type LeadSource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsCustom bool   `json:"is_custom"`
}

// Catalog holds the caller's current reference entities. Importers receive a
// catalog as a plain argument and never mutate it; newly proposed entities
// come back on the ImportResult instead.
type Catalog struct {
	ServiceTypes []ServiceType
	LeadSources  []LeadSource
}

// Booking is one booked project. Exactly one Booking exists per distinct
// project in a Booked-Client import, however many CSV rows named it.
type Booking struct {
	ID            string     `json:"id"`
	ProjectName   string     `json:"project_name"`
	ServiceTypeID string     `json:"service_type_id"`
	LeadSourceID  string     `json:"lead_source_id"`
	DateInquired  *time.Time `json:"date_inquired"`
	DateBooked    *time.Time `json:"date_booked"`
	ProjectDate   *time.Time `json:"project_date"`
	RevenueCents  int64      `json:"revenue_cents"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes"`
}

// FunnelBucket aggregates one calendar month of pipeline metrics.
// The Leads report only ever fills Inquiries (plus, when the export carries a
// booked-date column, Closes/RevenueCents attributed to the booked month);
// the Booked-Client report only ever fills Closes/RevenueCents.
type FunnelBucket struct {
	Year             int   `json:"year"`
	Month            int   `json:"month"`
	Inquiries        int   `json:"inquiries"`
	Closes           int   `json:"closes"`
	RevenueCents     int64 `json:"revenue_cents"`
	InquiriesYTD     int   `json:"inquiries_ytd"`
	BookingsYTDCents int64 `json:"bookings_ytd_cents"`
}

// ImportResult is the sole output of one import call. Errors are fatal
// per-row failures; Warnings are expected, recoverable omissions. Both are
// human-readable and prefixed with the 1-based source row number where one
// applies. The result is never partially persisted by the engine itself.
type ImportResult struct {
	Bookings     []Booking      `json:"bookings"`
	FunnelData   []FunnelBucket `json:"funnel_data"`
	ServiceTypes []ServiceType  `json:"service_types"`
	LeadSources  []LeadSource   `json:"lead_sources"`
	Errors       []string       `json:"errors"`
	Warnings     []string       `json:"warnings"`
}
