package quota

import "time"

// Duration is a leave amount in the ledger's mixed day+hour form. Hours is
// kept below the working-day threshold by normalize; a Duration that came out
// of Normalize or ledger arithmetic always satisfies 0 <= Hours < hoursPerDay.
type Duration struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
}

// Unit says which fields of a request produced a Duration.
type Unit string

const (
	UnitDay  Unit = "day"
	UnitHour Unit = "hour"
)

// Window carries the date/time fields of a leave request. StartTime and
// EndTime are wall-clock values in "15:04" form; when both are set the
// request is hour-denominated and the dates are ignored for accounting.
type Window struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime string
	EndTime   string
}

const minutesPerDay = 24 * 60

// Normalize converts a request window into ledger units. It never returns a
// negative Duration: an inverted date range clamps to zero, and a time range
// whose end is numerically earlier than its start is read as wrapping past
// midnight. Fractional hours are billed by the started hour.
func Normalize(w Window, hoursPerDay int) (Duration, Unit) {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}

	if w.StartTime != "" && w.EndTime != "" {
		d := Duration{Hours: elapsedHours(w.StartTime, w.EndTime)}
		return d.normalize(hoursPerDay), UnitHour
	}

	d := Duration{Days: inclusiveDays(w.StartDate, w.EndDate)}
	return d.normalize(hoursPerDay), UnitDay
}

func elapsedHours(start, end string) int {
	startMin, ok := parseClock(start)
	if !ok {
		return 0
	}
	endMin, ok := parseClock(end)
	if !ok {
		return 0
	}
	elapsed := (endMin - startMin + minutesPerDay) % minutesPerDay
	return (elapsed + 59) / 60
}

func parseClock(value string) (int, bool) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func inclusiveDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Units is the total in hours, the single comparable unit for quota checks.
func (d Duration) Units(hoursPerDay int) int {
	return d.Days*hoursPerDay + d.Hours
}

func (d Duration) IsZero() bool {
	return d.Days == 0 && d.Hours == 0
}

// normalize carries whole working days out of the hour field.
func (d Duration) normalize(hoursPerDay int) Duration {
	d.Days += d.Hours / hoursPerDay
	d.Hours %= hoursPerDay
	return d
}

// fromUnits rebuilds the mixed form from a total expressed in hours.
func fromUnits(units, hoursPerDay int) Duration {
	if units < 0 {
		units = 0
	}
	return Duration{Days: units / hoursPerDay, Hours: units % hoursPerDay}
}
