package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order. CRM exports flip between ISO dates, US
// slashed dates and spelled-out dates depending on the report version.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"1/2/06",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
}

// ParseDate converts a raw cell into a date. The returned bool is false only
// for non-blank text that failed to parse; callers turn that into a warning.
// Blank cells and the literal "TBD" sentinel (any case) are deliberate
// "not yet known" values and resolve to nil without complaint.
func ParseDate(cell string) (*time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" || strings.EqualFold(s, "tbd") {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t, true
		}
	}
	return nil, false
}

// currencyReplacer strips symbols and separators before decimal parsing.
var currencyReplacer = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// ParseCents converts raw currency text into an integer number of cents.
// Integer cents avoid the rounding drift of float math over many rows. The
// returned bool is false only for non-blank text that failed to parse; the
// value is 0 in every failure case.
func ParseCents(cell string) (int64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, true
	}
	s = strings.TrimSpace(currencyReplacer.Replace(s))
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.Round(2).Mul(decimal.NewFromInt(100)).IntPart(), true
}

// FormatCents renders cents as plain dollars text, the inverse of ParseCents
// for any value expressible to two decimal places.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
