// Package funnel turns the partial monthly buckets produced by one importer
// pass into a chronologically consistent series, and merges the two
// metric-disjoint series the Leads and Booked-Client importers emit.
package funnel

import (
	"sort"

	"github.com/studioops/funnelio/pkg/models"
)

// RollupYTD sorts buckets ascending by (year, month) and assigns the running
// within-year cumulative sums. The running totals reset whenever the year
// changes and include the current bucket.
func RollupYTD(buckets []models.FunnelBucket) []models.FunnelBucket {
	out := append([]models.FunnelBucket{}, buckets...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})

	year := 0
	inquiries := 0
	var revenue int64
	for i := range out {
		if out[i].Year != year {
			year = out[i].Year
			inquiries = 0
			revenue = 0
		}
		inquiries += out[i].Inquiries
		revenue += out[i].RevenueCents
		out[i].InquiriesYTD = inquiries
		out[i].BookingsYTDCents = revenue
	}
	return out
}

// Merge combines a Leads-sourced bucket set with a Booked-Client-sourced one
// by (year, month): inquiries come from the leads set, closes and revenue
// from the booked set. The merged series is re-rolled so the YTD columns are
// consistent across both metrics. The two inputs must come from their
// respective importers; passing them swapped silently drops metrics.
func Merge(leads, booked []models.FunnelBucket) []models.FunnelBucket {
	type key struct{ year, month int }

	merged := map[key]*models.FunnelBucket{}
	at := func(year, month int) *models.FunnelBucket {
		k := key{year, month}
		b, ok := merged[k]
		if !ok {
			b = &models.FunnelBucket{Year: year, Month: month}
			merged[k] = b
		}
		return b
	}

	for _, b := range leads {
		at(b.Year, b.Month).Inquiries = b.Inquiries
	}
	for _, b := range booked {
		m := at(b.Year, b.Month)
		m.Closes = b.Closes
		m.RevenueCents = b.RevenueCents
	}

	out := make([]models.FunnelBucket, 0, len(merged))
	for _, b := range merged {
		out = append(out, *b)
	}
	return RollupYTD(out)
}
