package csv

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/studioops/funnelio/pkg/models"
	"github.com/studioops/funnelio/pkg/parser"
)

type FilterFunc[T any] func(T) bool

// Create renders records as CSV bytes. A nil filter keeps every record.
func Create[T any](records []T, headers []string, row func(T) []string, filter FilterFunc[T]) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(headers)
	for _, r := range records {
		if filter == nil || filter(r) {
			_ = w.Write(row(r))
		}
	}
	w.Flush()
	return buf.Bytes()
}

// Bookings renders a bookings export. Entity ids are translated back to
// names through the result's entity lists.
func Bookings(result *models.ImportResult, filter FilterFunc[models.Booking]) []byte {
	serviceNames := make(map[string]string, len(result.ServiceTypes))
	for _, st := range result.ServiceTypes {
		serviceNames[st.ID] = st.Name
	}
	sourceNames := make(map[string]string, len(result.LeadSources))
	for _, ls := range result.LeadSources {
		sourceNames[ls.ID] = ls.Name
	}

	headers := []string{"Project", "Service Type", "Lead Source", "Inquired", "Booked", "Project Date", "Revenue", "Status"}
	return Create(result.Bookings, headers, func(b models.Booking) []string {
		return []string{
			b.ProjectName,
			serviceNames[b.ServiceTypeID],
			sourceNames[b.LeadSourceID],
			formatDate(b.DateInquired),
			formatDate(b.DateBooked),
			formatDate(b.ProjectDate),
			parser.FormatCents(b.RevenueCents),
			b.Status,
		}
	}, filter)
}

// Funnel renders the monthly funnel series.
func Funnel(buckets []models.FunnelBucket) []byte {
	headers := []string{"Year", "Month", "Inquiries", "Closes", "Revenue", "Inquiries YTD", "Bookings YTD"}
	return Create(buckets, headers, func(b models.FunnelBucket) []string {
		return []string{
			strconv.Itoa(b.Year),
			strconv.Itoa(b.Month),
			strconv.Itoa(b.Inquiries),
			strconv.Itoa(b.Closes),
			parser.FormatCents(b.RevenueCents),
			strconv.Itoa(b.InquiriesYTD),
			parser.FormatCents(b.BookingsYTDCents),
		}
	}, nil)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
