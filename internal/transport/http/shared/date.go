package shared

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate accepts the YYYY-MM-DD form leave windows and holidays are
// submitted in, plus full RFC3339 timestamps for clients that send those.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return parsed, nil
}
