package parser

import (
	"testing"
	"time"
)

func TestParseDateFormats(t *testing.T) {
	want := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	for _, cell := range []string{
		"2024-05-10",
		"5/10/2024",
		"05/10/2024",
		"2024/05/10",
		"May 10, 2024",
	} {
		got, ok := ParseDate(cell)
		if !ok || got == nil {
			t.Errorf("%q: expected parse, got nil (ok=%v)", cell, ok)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%q: expected %v, got %v", cell, want, got)
		}
	}
}

func TestParseDateTBDSentinel(t *testing.T) {
	for _, cell := range []string{"TBD", "tbd", " Tbd "} {
		got, ok := ParseDate(cell)
		if got != nil || !ok {
			t.Errorf("%q: expected nil without complaint, got %v (ok=%v)", cell, got, ok)
		}
	}
}

func TestParseDateBlankAndGarbage(t *testing.T) {
	if got, ok := ParseDate(""); got != nil || !ok {
		t.Errorf("blank: expected nil/ok, got %v (ok=%v)", got, ok)
	}
	if got, ok := ParseDate("not a date"); got != nil || ok {
		t.Errorf("garbage: expected nil/not-ok, got %v (ok=%v)", got, ok)
	}
}

func TestParseCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"$1,234.56", 123456, true},
		{"1234.56", 123456, true},
		{"$8,200.00", 820000, true},
		{"$450", 45000, true},
		{"0", 0, true},
		{"-$25.50", -2550, true},
		{"", 0, true},
		{"n/a", 0, false},
		{"$", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCents(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCents(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCentsRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 123456, 820000, -2550} {
		got, ok := ParseCents(FormatCents(cents))
		if !ok || got != cents {
			t.Errorf("round trip of %d yielded %d (ok=%v)", cents, got, ok)
		}
	}
}
