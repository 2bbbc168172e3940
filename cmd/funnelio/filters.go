package main

import (
	"strings"
	"time"

	"github.com/studioops/funnelio/pkg/csv"
	"github.com/studioops/funnelio/pkg/models"
)

type filters struct {
	startDate  string
	endDate    string
	minRevenue float64
	maxRevenue float64
	project    string
}

func (f *filters) toFilterFunc() csv.FilterFunc[models.Booking] {
	return func(b models.Booking) bool {
		if f.startDate != "" {
			start, _ := time.Parse("2006-01-02", f.startDate)
			if b.DateBooked == nil || b.DateBooked.Before(start) {
				return false
			}
		}
		if f.endDate != "" {
			end, _ := time.Parse("2006-01-02", f.endDate)
			if b.DateBooked == nil || b.DateBooked.After(end) {
				return false
			}
		}
		revenue := float64(b.RevenueCents) / 100
		if f.minRevenue != 0 && revenue < f.minRevenue {
			return false
		}
		if f.maxRevenue != 0 && revenue > f.maxRevenue {
			return false
		}
		if f.project != "" && !strings.Contains(strings.ToLower(b.ProjectName), strings.ToLower(f.project)) {
			return false
		}
		return true
	}
}
