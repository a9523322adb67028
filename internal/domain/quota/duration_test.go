package quota

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeDateRangeInclusive(t *testing.T) {
	d, unit := Normalize(Window{
		StartDate: date(2026, time.March, 10),
		EndDate:   date(2026, time.March, 12),
	}, 8)
	if unit != UnitDay {
		t.Fatalf("expected day unit, got %s", unit)
	}
	if d.Days != 3 || d.Hours != 0 {
		t.Fatalf("expected 3 days, got %+v", d)
	}
}

func TestNormalizeSingleDay(t *testing.T) {
	d, _ := Normalize(Window{
		StartDate: date(2026, time.March, 10),
		EndDate:   date(2026, time.March, 10),
	}, 8)
	if d.Days != 1 || d.Hours != 0 {
		t.Fatalf("expected 1 day, got %+v", d)
	}
}

func TestNormalizeInvertedDateRangeClampsToZero(t *testing.T) {
	d, _ := Normalize(Window{
		StartDate: date(2026, time.March, 12),
		EndDate:   date(2026, time.March, 10),
	}, 8)
	if !d.IsZero() {
		t.Fatalf("expected zero duration, got %+v", d)
	}
}

func TestNormalizeMissingDatesClampsToZero(t *testing.T) {
	d, _ := Normalize(Window{}, 8)
	if !d.IsZero() {
		t.Fatalf("expected zero duration, got %+v", d)
	}
}

func TestNormalizeTimeRange(t *testing.T) {
	d, unit := Normalize(Window{StartTime: "09:00", EndTime: "12:00"}, 8)
	if unit != UnitHour {
		t.Fatalf("expected hour unit, got %s", unit)
	}
	if d.Days != 0 || d.Hours != 3 {
		t.Fatalf("expected 3 hours, got %+v", d)
	}
}

func TestNormalizeTimeRangeWrapsPastMidnight(t *testing.T) {
	d, _ := Normalize(Window{StartTime: "22:00", EndTime: "02:00"}, 8)
	if d.Days != 0 || d.Hours != 4 {
		t.Fatalf("expected 4 hours, got %+v", d)
	}
}

func TestNormalizeTimeRangeCarriesFullDays(t *testing.T) {
	// Ten elapsed hours with an eight-hour working day is one day two hours.
	d, _ := Normalize(Window{StartTime: "08:00", EndTime: "18:00"}, 8)
	if d.Days != 1 || d.Hours != 2 {
		t.Fatalf("expected 1 day 2 hours, got %+v", d)
	}
}

func TestNormalizeStartedHourIsBilled(t *testing.T) {
	d, _ := Normalize(Window{StartTime: "09:00", EndTime: "10:30"}, 8)
	if d.Days != 0 || d.Hours != 2 {
		t.Fatalf("expected 90 minutes to bill 2 hours, got %+v", d)
	}
}

func TestNormalizeUnparsableTimesClampToZero(t *testing.T) {
	d, _ := Normalize(Window{StartTime: "morning", EndTime: "noon"}, 8)
	if !d.IsZero() {
		t.Fatalf("expected zero duration, got %+v", d)
	}
}

func TestNormalizeTimeRangeWinsOverDates(t *testing.T) {
	// A request carrying both a time range and dates is hour-denominated.
	d, unit := Normalize(Window{
		StartDate: date(2026, time.March, 10),
		EndDate:   date(2026, time.March, 12),
		StartTime: "13:00",
		EndTime:   "15:00",
	}, 8)
	if unit != UnitHour || d.Hours != 2 || d.Days != 0 {
		t.Fatalf("expected 2 hours, got %+v (%s)", d, unit)
	}
}

func TestUnits(t *testing.T) {
	d := Duration{Days: 2, Hours: 3}
	if got := d.Units(8); got != 19 {
		t.Fatalf("expected 19 hours, got %d", got)
	}
}

func TestFromUnitsNormalizes(t *testing.T) {
	d := fromUnits(19, 8)
	if d.Days != 2 || d.Hours != 3 {
		t.Fatalf("expected 2 days 3 hours, got %+v", d)
	}
}

func TestFromUnitsClampsNegative(t *testing.T) {
	d := fromUnits(-5, 8)
	if !d.IsZero() {
		t.Fatalf("expected zero duration, got %+v", d)
	}
}

func TestConsumeRevertRoundTrip(t *testing.T) {
	const hpd = 8
	initial := usage{Days: 3, Hours: 5}
	request := Duration{Days: 1, Hours: 6}

	afterConsume := fromUnits(initial.Days*hpd+initial.Hours+request.Units(hpd), hpd)
	if afterConsume.Hours < 0 || afterConsume.Hours >= hpd {
		t.Fatalf("normalization invariant broken after consume: %+v", afterConsume)
	}

	afterRevert := fromUnits(afterConsume.Days*hpd+afterConsume.Hours-request.Units(hpd), hpd)
	if afterRevert.Days != initial.Days || afterRevert.Hours != initial.Hours {
		t.Fatalf("round-trip drifted: started %+v, ended %+v", initial, afterRevert)
	}
}

func TestRevertNeverGoesNegative(t *testing.T) {
	const hpd = 8
	used := usage{Days: 0, Hours: 2}
	request := Duration{Days: 1, Hours: 0}
	after := fromUnits(used.Days*hpd+used.Hours-request.Units(hpd), hpd)
	if after.Days < 0 || after.Hours < 0 {
		t.Fatalf("usage went negative: %+v", after)
	}
	if !after.IsZero() {
		t.Fatalf("expected clamp to zero, got %+v", after)
	}
}
