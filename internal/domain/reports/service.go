package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"leavedesk/internal/domain/quota"
)

type Service struct {
	Store  *Store
	Ledger *quota.Ledger
}

func NewService(store *Store, ledger *quota.Ledger) *Service {
	return &Service{Store: store, Ledger: ledger}
}

type Dashboard struct {
	ActiveUsers      int `json:"activeUsers"`
	PendingRequests  int `json:"pendingRequests"`
	ApprovedLast30   int `json:"approvedLast30Days"`
	UpcomingHolidays int `json:"upcomingHolidays"`
}

func (s *Service) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	var d Dashboard
	var err error
	if d.ActiveUsers, err = s.Store.ActiveUserCount(ctx); err != nil {
		return d, err
	}
	if d.PendingRequests, err = s.Store.PendingRequestCount(ctx); err != nil {
		return d, err
	}
	if d.ApprovedLast30, err = s.Store.ApprovedSince(ctx, now.AddDate(0, 0, -30)); err != nil {
		return d, err
	}
	if d.UpcomingHolidays, err = s.Store.UpcomingHolidayCount(ctx, now, 30); err != nil {
		return d, err
	}
	return d, nil
}

func (s *Service) remaining(row UsageRow) string {
	if row.Unlimited {
		return ""
	}
	used := quota.Duration{Days: row.DaysUsed, Hours: row.HoursUsed}
	return quota.RemainingDaysString(row.EntitledDays, used, s.Ledger.HoursPerDay)
}

// UsageCSV renders the leave usage report as CSV.
func (s *Service) UsageCSV(ctx context.Context, departmentID string) ([]byte, error) {
	rows, err := s.Store.LeaveUsage(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{"name", "email", "department", "position", "leave type", "entitled days", "days used", "hours used", "remaining days"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		entitled := strconv.Itoa(row.EntitledDays)
		if row.Unlimited {
			entitled = "unlimited"
		}
		record := []string{
			row.UserName, row.Email, row.Department, row.Position, row.LeaveTypeName,
			entitled, strconv.Itoa(row.DaysUsed), strconv.Itoa(row.HoursUsed), s.remaining(row),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UsagePDF renders the leave usage report as a tabular PDF.
func (s *Service) UsagePDF(ctx context.Context, departmentID string, now time.Time) ([]byte, error) {
	rows, err := s.Store.LeaveUsage(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Usage Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", now.Format("2006-01-02")))
	pdf.Ln(10)

	widths := []float64{45, 40, 35, 45, 25, 25, 25, 30}
	headers := []string{"Name", "Department", "Position", "Leave type", "Entitled", "Days used", "Hours used", "Remaining"}
	pdf.SetFont("Helvetica", "B", 9)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		entitled := strconv.Itoa(row.EntitledDays)
		if row.Unlimited {
			entitled = "unlimited"
		}
		cells := []string{
			row.UserName, row.Department, row.Position, row.LeaveTypeName,
			entitled, strconv.Itoa(row.DaysUsed), strconv.Itoa(row.HoursUsed), s.remaining(row),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
