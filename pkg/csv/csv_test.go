package csv

import (
	"strings"
	"testing"
	"time"

	"github.com/studioops/funnelio/pkg/models"
)

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func sampleResult() *models.ImportResult {
	return &models.ImportResult{
		Bookings: []models.Booking{
			{ProjectName: "Smith, Wedding", ServiceTypeID: "st-1", LeadSourceID: "ls-1",
				DateBooked: date("2024-05-10"), RevenueCents: 820000, Status: "booked"},
			{ProjectName: "Lee Elopement", ServiceTypeID: "st-1", LeadSourceID: "ls-1",
				DateBooked: date("2024-06-02"), RevenueCents: 45000, Status: "booked"},
		},
		ServiceTypes: []models.ServiceType{{ID: "st-1", Name: "Wedding"}},
		LeadSources:  []models.LeadSource{{ID: "ls-1", Name: "Instagram"}},
	}
}

func TestBookingsExport(t *testing.T) {
	out := string(Bookings(sampleResult(), nil))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Project,Service Type,Lead Source") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// Commas inside project names must survive quoting.
	if !strings.Contains(lines[1], `"Smith, Wedding"`) {
		t.Errorf("expected quoted project name, got %s", lines[1])
	}
	if !strings.Contains(lines[1], "Wedding") || !strings.Contains(lines[1], "Instagram") {
		t.Errorf("entity ids should render as names, got %s", lines[1])
	}
	if !strings.Contains(lines[1], "8200.00") {
		t.Errorf("expected revenue 8200.00, got %s", lines[1])
	}
}

func TestBookingsExportFilter(t *testing.T) {
	out := string(Bookings(sampleResult(), func(b models.Booking) bool {
		return b.RevenueCents >= 100000
	}))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 filtered row, got:\n%s", out)
	}
}

func TestFunnelExport(t *testing.T) {
	buckets := []models.FunnelBucket{
		{Year: 2024, Month: 1, Inquiries: 2, InquiriesYTD: 2},
		{Year: 2024, Month: 2, Closes: 1, RevenueCents: 500000, InquiriesYTD: 2, BookingsYTDCents: 500000},
	}
	out := string(Funnel(buckets))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got:\n%s", out)
	}
	if lines[2] != "2024,2,0,1,5000.00,2,5000.00" {
		t.Errorf("unexpected funnel row: %s", lines[2])
	}
}
