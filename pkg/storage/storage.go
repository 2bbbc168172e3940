// Package storage is the persistence collaborator for import results:
// upsert-by-name for reference entities, upsert-by-id for bookings and
// upsert-by-(user, year, month) for funnel buckets, on SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/studioops/funnelio/pkg/models"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

func New(dbPath string, logger *log.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, logger: logger}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Catalog returns the tenant's current reference entities, in insertion
// order, for handing to an import call.
func (r *Repository) Catalog(ctx context.Context, userID string) (models.Catalog, error) {
	var catalog models.Catalog

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_custom FROM service_types WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return catalog, fmt.Errorf("query service types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st models.ServiceType
		if err := rows.Scan(&st.ID, &st.Name, &st.IsCustom); err != nil {
			return catalog, fmt.Errorf("scan service type: %w", err)
		}
		catalog.ServiceTypes = append(catalog.ServiceTypes, st)
	}
	if err := rows.Err(); err != nil {
		return catalog, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, name, is_custom FROM lead_sources WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return catalog, fmt.Errorf("query lead sources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ls models.LeadSource
		if err := rows.Scan(&ls.ID, &ls.Name, &ls.IsCustom); err != nil {
			return catalog, fmt.Errorf("scan lead source: %w", err)
		}
		catalog.LeadSources = append(catalog.LeadSources, ls)
	}
	return catalog, rows.Err()
}

// SaveResult persists everything one import call produced, in one
// transaction. Funnel buckets are expected to be the merged series.
func (r *Repository) SaveResult(ctx context.Context, userID string, result *models.ImportResult, buckets []models.FunnelBucket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertEntities(ctx, tx, userID, result.ServiceTypes, result.LeadSources); err != nil {
		return err
	}
	if err := upsertBookings(ctx, tx, userID, result.Bookings); err != nil {
		return err
	}
	if err := upsertFunnel(ctx, tx, userID, buckets); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("import persisted",
		"user", userID,
		"bookings", len(result.Bookings),
		"months", len(buckets))
	return nil
}

func upsertEntities(ctx context.Context, tx *sql.Tx, userID string, serviceTypes []models.ServiceType, leadSources []models.LeadSource) error {
	for _, st := range serviceTypes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO service_types (id, user_id, name, is_custom) VALUES (?, ?, ?, ?)
			 ON CONFLICT (user_id, name) DO UPDATE SET is_custom = excluded.is_custom`,
			st.ID, userID, st.Name, st.IsCustom)
		if err != nil {
			return fmt.Errorf("upsert service type %q: %w", st.Name, err)
		}
	}
	for _, ls := range leadSources {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lead_sources (id, user_id, name, is_custom) VALUES (?, ?, ?, ?)
			 ON CONFLICT (user_id, name) DO UPDATE SET is_custom = excluded.is_custom`,
			ls.ID, userID, ls.Name, ls.IsCustom)
		if err != nil {
			return fmt.Errorf("upsert lead source %q: %w", ls.Name, err)
		}
	}
	return nil
}

func upsertBookings(ctx context.Context, tx *sql.Tx, userID string, bookings []models.Booking) error {
	for _, b := range bookings {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bookings
			 (id, user_id, project_name, service_type_id, lead_source_id,
			  date_inquired, date_booked, project_date, revenue_cents, status, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   project_name = excluded.project_name,
			   service_type_id = excluded.service_type_id,
			   lead_source_id = excluded.lead_source_id,
			   date_inquired = excluded.date_inquired,
			   date_booked = excluded.date_booked,
			   project_date = excluded.project_date,
			   revenue_cents = excluded.revenue_cents,
			   status = excluded.status,
			   notes = excluded.notes`,
			b.ID, userID, b.ProjectName, b.ServiceTypeID, b.LeadSourceID,
			nullDate(b.DateInquired), nullDate(b.DateBooked), nullDate(b.ProjectDate),
			b.RevenueCents, b.Status, b.Notes)
		if err != nil {
			return fmt.Errorf("upsert booking %q: %w", b.ProjectName, err)
		}
	}
	return nil
}

func upsertFunnel(ctx context.Context, tx *sql.Tx, userID string, buckets []models.FunnelBucket) error {
	for _, b := range buckets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO funnel_months
			 (user_id, year, month, inquiries, closes, revenue_cents, inquiries_ytd, bookings_ytd_cents)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (user_id, year, month) DO UPDATE SET
			   inquiries = excluded.inquiries,
			   closes = excluded.closes,
			   revenue_cents = excluded.revenue_cents,
			   inquiries_ytd = excluded.inquiries_ytd,
			   bookings_ytd_cents = excluded.bookings_ytd_cents`,
			userID, b.Year, b.Month, b.Inquiries, b.Closes, b.RevenueCents, b.InquiriesYTD, b.BookingsYTDCents)
		if err != nil {
			return fmt.Errorf("upsert funnel month %d-%02d: %w", b.Year, b.Month, err)
		}
	}
	return nil
}

// FunnelMonths returns the tenant's stored funnel series in chronological
// order.
func (r *Repository) FunnelMonths(ctx context.Context, userID string) ([]models.FunnelBucket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT year, month, inquiries, closes, revenue_cents, inquiries_ytd, bookings_ytd_cents
		 FROM funnel_months WHERE user_id = ? ORDER BY year, month`, userID)
	if err != nil {
		return nil, fmt.Errorf("query funnel months: %w", err)
	}
	defer rows.Close()

	var buckets []models.FunnelBucket
	for rows.Next() {
		var b models.FunnelBucket
		if err := rows.Scan(&b.Year, &b.Month, &b.Inquiries, &b.Closes, &b.RevenueCents, &b.InquiriesYTD, &b.BookingsYTDCents); err != nil {
			return nil, fmt.Errorf("scan funnel month: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
