package shared

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "date only", value: "2026-03-15", want: "2026-03-15"},
		{name: "rfc3339", value: "2026-03-15T09:00:00Z", want: "2026-03-15"},
		{name: "empty is zero", value: "", want: "0001-01-01"},
		{name: "garbage", value: "not-a-date", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.value)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Format("2006-01-02") != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestValidatorTime(t *testing.T) {
	v := NewValidator()
	if got, ok := v.Time("startTime", "09:30"); !ok || got != "09:30" {
		t.Fatalf("expected 09:30 accepted, got %q ok=%v", got, ok)
	}
	if _, ok := v.Time("endTime", ""); !ok {
		t.Fatal("expected empty time accepted")
	}
	if v.HasIssues() {
		t.Fatalf("expected no issues yet, got %v", v.Issues())
	}
	if _, ok := v.Time("endTime", "25:00"); ok {
		t.Fatal("expected 25:00 rejected")
	}
	if !v.HasIssues() {
		t.Fatal("expected issue recorded for invalid time")
	}
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 8, 0, 0, 0, 0, time.UTC)
	v.DateOrder("startDate", start, "endDate", end)
	if len(v.Issues()) != 2 {
		t.Fatalf("expected two order issues, got %v", v.Issues())
	}

	v = NewValidator()
	v.DateOrder("startDate", start, "endDate", start)
	if v.HasIssues() {
		t.Fatalf("same-day range should pass, got %v", v.Issues())
	}
}

func TestValidatorEnum(t *testing.T) {
	v := NewValidator()
	v.Enum("strategy", "ZERO", []string{"zero", "delete"}, "bad strategy")
	if v.HasIssues() {
		t.Fatalf("case-insensitive match should pass, got %v", v.Issues())
	}
	v.Enum("strategy", "purge", []string{"zero", "delete"}, "bad strategy")
	if !v.HasIssues() {
		t.Fatal("expected enum issue for unknown value")
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", url: "/x", wantLimit: 20, wantOffset: 0},
		{name: "explicit", url: "/x?limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{name: "over max clamps", url: "/x?limit=500", wantLimit: 100, wantOffset: 0},
		{name: "negative ignored", url: "/x?limit=-1&offset=-2", wantLimit: 20, wantOffset: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			page := ParsePagination(r, 20, 100)
			if page.Limit != tc.wantLimit || page.Offset != tc.wantOffset {
				t.Fatalf("expected limit=%d offset=%d, got limit=%d offset=%d",
					tc.wantLimit, tc.wantOffset, page.Limit, page.Offset)
			}
		})
	}
}
