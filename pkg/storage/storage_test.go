package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/studioops/funnelio/pkg/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "funnelio.db"), log.Default())
	if err != nil {
		t.Fatalf("failed to open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveResultRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	booked := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	result := &models.ImportResult{
		Bookings: []models.Booking{{
			ID: "b-1", ProjectName: "Smith Wedding",
			ServiceTypeID: "st-1", LeadSourceID: "ls-1",
			DateBooked: &booked, RevenueCents: 820000, Status: "booked",
		}},
		ServiceTypes: []models.ServiceType{{ID: "st-1", Name: "Wedding", IsCustom: true}},
		LeadSources:  []models.LeadSource{{ID: "ls-1", Name: "Instagram", IsCustom: true}},
	}
	buckets := []models.FunnelBucket{
		{Year: 2024, Month: 5, Closes: 1, RevenueCents: 820000, BookingsYTDCents: 820000},
	}

	if err := repo.SaveResult(ctx, "tenant-1", result, buckets); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	catalog, err := repo.Catalog(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(catalog.ServiceTypes) != 1 || catalog.ServiceTypes[0].Name != "Wedding" || !catalog.ServiceTypes[0].IsCustom {
		t.Errorf("unexpected service types: %+v", catalog.ServiceTypes)
	}
	if len(catalog.LeadSources) != 1 || catalog.LeadSources[0].Name != "Instagram" {
		t.Errorf("unexpected lead sources: %+v", catalog.LeadSources)
	}

	months, err := repo.FunnelMonths(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("FunnelMonths failed: %v", err)
	}
	if len(months) != 1 || months[0].Closes != 1 || months[0].RevenueCents != 820000 {
		t.Errorf("unexpected funnel months: %+v", months)
	}

	// Other tenants see nothing.
	other, err := repo.FunnelMonths(ctx, "tenant-2")
	if err != nil {
		t.Fatalf("FunnelMonths failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("tenant isolation broken: %+v", other)
	}
}

func TestSaveResultUpsertsByMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []models.FunnelBucket{{Year: 2024, Month: 5, Closes: 1, RevenueCents: 100}}
	second := []models.FunnelBucket{{Year: 2024, Month: 5, Closes: 3, RevenueCents: 999, BookingsYTDCents: 999}}

	empty := &models.ImportResult{}
	if err := repo.SaveResult(ctx, "tenant-1", empty, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveResult(ctx, "tenant-1", empty, second); err != nil {
		t.Fatal(err)
	}

	months, err := repo.FunnelMonths(ctx, "tenant-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(months) != 1 || months[0].Closes != 3 || months[0].RevenueCents != 999 {
		t.Errorf("expected second save to win, got %+v", months)
	}
}

func TestUpsertEntitiesByName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	result := &models.ImportResult{
		ServiceTypes: []models.ServiceType{{ID: "st-1", Name: "Wedding"}},
	}
	if err := repo.SaveResult(ctx, "tenant-1", result, nil); err != nil {
		t.Fatal(err)
	}

	// A later import proposes the same name under a fresh id; the row count
	// must not grow.
	again := &models.ImportResult{
		ServiceTypes: []models.ServiceType{{ID: "st-other", Name: "Wedding", IsCustom: true}},
	}
	if err := repo.SaveResult(ctx, "tenant-1", again, nil); err != nil {
		t.Fatal(err)
	}

	catalog, err := repo.Catalog(ctx, "tenant-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog.ServiceTypes) != 1 {
		t.Fatalf("upsert-by-name should keep one row, got %+v", catalog.ServiceTypes)
	}
	if !catalog.ServiceTypes[0].IsCustom {
		t.Errorf("conflict update should apply is_custom, got %+v", catalog.ServiceTypes[0])
	}
}
