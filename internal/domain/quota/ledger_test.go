package quota

import (
	"testing"
	"time"
)

func TestAdmitExactBoundary(t *testing.T) {
	// Entitlement 5 days, 4 days used: exactly one more day fits (40 <= 40).
	admitted, _ := admit(usage{Days: 4}, Duration{Days: 1}, 5, 8)
	if !admitted {
		t.Fatal("expected request at exact boundary to be admitted")
	}
}

func TestAdmitDeniesOneHourOver(t *testing.T) {
	admitted, remaining := admit(usage{Days: 4}, Duration{Days: 1, Hours: 1}, 5, 8)
	if admitted {
		t.Fatal("expected request one hour over quota to be denied")
	}
	if got := remaining.StringFixed(2); got != "1.00" {
		t.Fatalf("expected 1.00 remaining days, got %s", got)
	}
}

func TestAdmitReportsFractionalRemaining(t *testing.T) {
	admitted, remaining := admit(usage{Days: 4, Hours: 3}, Duration{Days: 2}, 5, 8)
	if admitted {
		t.Fatal("expected denial")
	}
	if got := remaining.StringFixed(2); got != "0.63" {
		t.Fatalf("expected 0.63 remaining days, got %s", got)
	}
}

func TestAdmitZeroRequest(t *testing.T) {
	admitted, _ := admit(usage{Days: 5}, Duration{}, 5, 8)
	if !admitted {
		t.Fatal("a zero-length request consumes nothing and must pass")
	}
}

func TestAdmitRemainingNeverNegative(t *testing.T) {
	// Drifted bookkeeping must not surface a negative remaining figure.
	admitted, remaining := admit(usage{Days: 7}, Duration{Hours: 1}, 5, 8)
	if admitted {
		t.Fatal("expected denial")
	}
	if got := remaining.StringFixed(2); got != "0.00" {
		t.Fatalf("expected 0.00 remaining days, got %s", got)
	}
}

func TestNewLedgerDefaultsHoursPerDay(t *testing.T) {
	if l := NewLedger(0); l.HoursPerDay != DefaultHoursPerDay {
		t.Fatalf("expected default %d, got %d", DefaultHoursPerDay, l.HoursPerDay)
	}
	if l := NewLedger(6); l.HoursPerDay != 6 {
		t.Fatalf("expected 6, got %d", l.HoursPerDay)
	}
}

func TestResetDueOnlyOnJanuaryFirst(t *testing.T) {
	if !resetDue(time.Date(2026, time.January, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatal("expected reset to be due on January 1")
	}
	if resetDue(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("reset must not be due mid-year")
	}
	if resetDue(time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("reset must not be due on January 2")
	}
}

func TestParseResetStrategy(t *testing.T) {
	cases := []struct {
		in     string
		want   ResetStrategy
		wantOK bool
	}{
		{"", ResetZero, true},
		{"zero", ResetZero, true},
		{"delete", ResetDelete, true},
		{"purge", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseResetStrategy(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("ParseResetStrategy(%q) = %q,%v; want %q,%v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
