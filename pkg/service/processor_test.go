package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

const leadsCSV = `Lead Name,Lead Created Date,Booked Date,Project Value
Smith Wedding,1/5/2024,5/10/2024,"$8,200.00"
Jones Portrait,1/12/2024,,
Lee Event,3/3/2024,,
`

const bookedCSV = `Project Name,Project Type,Project Source,Booked Date,Created Date,Project Value
Smith Wedding,Wedding,Instagram,2024-05-10,2024-01-05,"$8,200.00"
Smith Wedding,Wedding,Instagram,2024-05-10,2024-01-05,"$8,200.00"
`

func writeReports(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "leads-export.csv"), []byte(leadsCSV), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "booked-clients.csv"), []byte(bookedCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestProcessDirectory(t *testing.T) {
	dir := writeReports(t)
	out := t.TempDir()

	processor := NewProcessor(log.Default(), nil, out)
	outcome, err := processor.ProcessDirectory(context.Background(), dir, "tenant-1")
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}

	if len(outcome.Bookings) != 1 {
		t.Fatalf("expected 1 deduped booking, got %d", len(outcome.Bookings))
	}
	if len(outcome.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", outcome.Errors)
	}

	// Merged series: inquiries from the leads file, closes/revenue from the
	// booked file, YTD rolled across both.
	var jan, may bool
	for _, b := range outcome.Funnel {
		switch {
		case b.Year == 2024 && b.Month == 1:
			jan = true
			if b.Inquiries != 2 || b.Closes != 0 {
				t.Errorf("Jan: got %+v", b)
			}
		case b.Year == 2024 && b.Month == 5:
			may = true
			if b.Closes != 1 || b.RevenueCents != 820000 || b.Inquiries != 0 {
				t.Errorf("May: got %+v", b)
			}
			if b.InquiriesYTD != 3 || b.BookingsYTDCents != 820000 {
				t.Errorf("May YTD: got %+v", b)
			}
		}
	}
	if !jan || !may {
		t.Fatalf("missing merged months: %+v", outcome.Funnel)
	}

	for _, name := range []string{"bookings.csv", "funnel.csv"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected output file %s: %v", name, err)
		}
	}
}

func TestRunManifest(t *testing.T) {
	dir := writeReports(t)

	manifest := "user_id: tenant-2\nreports:\n" +
		"  - type: leads\n    file: " + filepath.Join(dir, "leads-export.csv") + "\n" +
		"  - type: booked\n    file: " + filepath.Join(dir, "booked-clients.csv") + "\n"
	manifestPath := filepath.Join(dir, "import.yaml")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	processor := NewProcessor(log.Default(), nil, "")
	outcome, err := processor.RunManifest(context.Background(), manifestPath, "ignored")
	if err != nil {
		t.Fatalf("RunManifest failed: %v", err)
	}
	if len(outcome.Bookings) != 1 {
		t.Errorf("expected 1 booking, got %d", len(outcome.Bookings))
	}
}

func TestRunPrefixesMessagesWithFilename(t *testing.T) {
	dir := t.TempDir()
	content := "Lead Name,Lead Created Date\n,1/5/2024\n"
	if err := os.WriteFile(filepath.Join(dir, "leads.csv"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	processor := NewProcessor(log.Default(), nil, "")
	outcome, err := processor.ProcessDirectory(context.Background(), dir, "tenant-1")
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}
	if len(outcome.Warnings) != 1 || !strings.HasPrefix(outcome.Warnings[0], "leads.csv: row 1:") {
		t.Errorf("expected filename-prefixed warning, got %v", outcome.Warnings)
	}
}
