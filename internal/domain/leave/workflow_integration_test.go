package leave_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"leavedesk/internal/app/server"
	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/quota"
	"leavedesk/internal/platform/config"
)

func newTestApp(t *testing.T) *server.App {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if strings.TrimSpace(dbURL) == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		Addr:               ":0",
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		RunMigrations:      true,
		MigrationsDir:      filepath.Join("..", "..", "..", "migrations"),
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		UploadDir:          t.TempDir(),
		MaxUploadBytes:     1048576,
		HoursPerDay:        8,
		QuotaResetInterval: time.Hour,
		QuotaResetStrategy: "zero",
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

type fixture struct {
	positionID  string
	leaveTypeID string
	employeeID  string
	approverID  string
}

// newFixture provisions a position with a 5 day annual entitlement, one
// employee holding it, and one approver.
func newFixture(t *testing.T, app *server.App) fixture {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	var f fixture
	if err := app.DB.QueryRow(ctx,
		"INSERT INTO positions (name, auto_reset) VALUES ($1, true) RETURNING id",
		"Engineer "+suffix).Scan(&f.positionID); err != nil {
		t.Fatalf("create position: %v", err)
	}

	if err := app.DB.QueryRow(ctx,
		"SELECT id FROM leave_types WHERE name = 'Annual Leave'").Scan(&f.leaveTypeID); err != nil {
		t.Fatalf("find seeded leave type: %v", err)
	}
	if err := quota.UpsertEntitlement(ctx, app.DB, f.positionID, f.leaveTypeID, 5); err != nil {
		t.Fatalf("create entitlement: %v", err)
	}

	f.employeeID = createTestUser(t, app, "employee", "emp-"+suffix+"@test.local", f.positionID)
	f.approverID = createTestUser(t, app, "approver", "apr-"+suffix+"@test.local", "")
	return f
}

func createTestUser(t *testing.T, app *server.App, role, email, positionID string) string {
	t.Helper()
	ctx := context.Background()

	var roleID string
	if err := app.DB.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", role).Scan(&roleID); err != nil {
		t.Fatalf("find role %s: %v", role, err)
	}
	hash, err := auth.HashPassword("Password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id string
	if err := app.DB.QueryRow(ctx, `
    INSERT INTO users (email, name, password_hash, role_id, position_id, status)
    VALUES ($1, $2, $3, $4, NULLIF($5,'')::uuid, 'active')
    RETURNING id
  `, email, "Test "+role, hash, roleID, positionID).Scan(&id); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func submitDays(t *testing.T, app *server.App, f fixture, start, end string) leave.LeaveRequest {
	t.Helper()
	return submitFor(t, app, f.employeeID, f.leaveTypeID, start, end)
}

func submitFor(t *testing.T, app *server.App, userID, leaveTypeID, start, end string) leave.LeaveRequest {
	t.Helper()
	startDate, _ := time.Parse("2006-01-02", start)
	endDate, _ := time.Parse("2006-01-02", end)
	req, err := app.Leave.Submit(context.Background(), leave.SubmitInput{
		UserID:      userID,
		LeaveTypeID: leaveTypeID,
		StartDate:   startDate,
		EndDate:     endDate,
		Reason:      "trip",
	}, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return req
}

func usedDuration(t *testing.T, app *server.App, f fixture) quota.Duration {
	t.Helper()
	var d quota.Duration
	err := app.DB.QueryRow(context.Background(), `
    SELECT COALESCE(days_used,0), COALESCE(hours_used,0)
    FROM usage_records
    WHERE user_id = $1 AND leave_type_id = $2
  `, f.employeeID, f.leaveTypeID).Scan(&d.Days, &d.Hours)
	if err != nil {
		// No row means nothing consumed yet.
		return quota.Duration{}
	}
	return d
}

func TestApproveConsumesAndRejectReverts(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)
	ctx := context.Background()

	req := submitDays(t, app, f, "2026-06-01", "2026-06-02")
	if req.Status != leave.StatusPending {
		t.Fatalf("expected pending after submit, got %s", req.Status)
	}
	if used := usedDuration(t, app, f); used.Days != 0 || used.Hours != 0 {
		t.Fatalf("submit must not touch the ledger, found %+v", used)
	}

	result, err := app.Leave.Approve(ctx, req.ID, f.approverID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Duration.Days != 2 || result.Duration.Hours != 0 {
		t.Fatalf("expected 2 day consumption, got %+v", result.Duration)
	}
	if used := usedDuration(t, app, f); used.Days != 2 {
		t.Fatalf("expected 2 days used after approval, got %+v", used)
	}

	if _, err := app.Leave.Approve(ctx, req.ID, f.approverID); !errors.Is(err, leave.ErrInvalidState) {
		t.Fatalf("second approval should fail with invalid state, got %v", err)
	}

	if _, err := app.Leave.Reject(ctx, req.ID, f.approverID); err != nil {
		t.Fatalf("reject approved request: %v", err)
	}
	if used := usedDuration(t, app, f); used.Days != 0 || used.Hours != 0 {
		t.Fatalf("expected usage reverted after reject, got %+v", used)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("stream truncated")
}

func TestSubmitRollsBackOnAttachmentFailure(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)
	ctx := context.Background()

	start, _ := time.Parse("2006-01-02", "2026-06-01")
	_, err := app.Leave.Submit(ctx, leave.SubmitInput{
		UserID:      f.employeeID,
		LeaveTypeID: f.leaveTypeID,
		StartDate:   start,
		EndDate:     start,
		Reason:      "trip",
	}, []leave.Upload{{FileName: "doc.pdf", ContentType: "application/pdf", Data: brokenReader{}}})
	if err == nil {
		t.Fatal("expected submit to fail when an attachment cannot be stored")
	}

	var count int
	if err := app.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests WHERE user_id = $1", f.employeeID).Scan(&count); err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if count != 0 {
		t.Fatal("failed submit must not leave a request row behind")
	}
}

func TestSelfApprovalBlocked(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)

	req := submitDays(t, app, f, "2026-06-08", "2026-06-08")
	if _, err := app.Leave.Approve(context.Background(), req.ID, f.employeeID); !errors.Is(err, leave.ErrSelfApproval) {
		t.Fatalf("expected self approval rejected, got %v", err)
	}
}

func TestApproveDeniedWhenQuotaExceeded(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)
	ctx := context.Background()

	first := submitDays(t, app, f, "2026-06-01", "2026-06-04")
	if _, err := app.Leave.Approve(ctx, first.ID, f.approverID); err != nil {
		t.Fatalf("approve within quota: %v", err)
	}

	second := submitDays(t, app, f, "2026-06-08", "2026-06-09")
	_, err := app.Leave.Approve(ctx, second.ID, f.approverID)
	var exceeded *quota.ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected quota exceeded error, got %v", err)
	}
	if got := exceeded.RemainingDays.StringFixed(2); got != "1.00" {
		t.Fatalf("expected 1.00 remaining days in denial, got %s", got)
	}

	var status string
	if err := app.DB.QueryRow(ctx, "SELECT status FROM leave_requests WHERE id = $1", second.ID).Scan(&status); err != nil {
		t.Fatalf("load request: %v", err)
	}
	if status != leave.StatusPending {
		t.Fatalf("denied request must stay pending, got %s", status)
	}
	if used := usedDuration(t, app, f); used.Days != 4 {
		t.Fatalf("denied approval must not consume, got %+v", used)
	}
}

func TestApprovePositionlessEmployeeDenied(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	// No position means no entitlement row can exist; approval must come
	// back as a quota denial, not as a database error.
	loneID := createTestUser(t, app, "employee", "lone-"+suffix+"@test.local", "")
	req := submitFor(t, app, loneID, f.leaveTypeID, "2026-06-01", "2026-06-02")

	if _, err := app.Leave.Approve(ctx, req.ID, f.approverID); !errors.Is(err, quota.ErrNoEntitlement) {
		t.Fatalf("expected no-entitlement denial for positionless employee, got %v", err)
	}

	var status string
	if err := app.DB.QueryRow(ctx, "SELECT status FROM leave_requests WHERE id = $1", req.ID).Scan(&status); err != nil {
		t.Fatalf("load request: %v", err)
	}
	if status != leave.StatusPending {
		t.Fatalf("denied request must stay pending, got %s", status)
	}
}

func TestUnlimitedTypeBypassesQuota(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	var unlimitedID string
	if err := app.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, category, unlimited)
    VALUES ($1, 'special', true)
    RETURNING id
  `, "Jury Duty "+suffix).Scan(&unlimitedID); err != nil {
		t.Fatalf("create unlimited type: %v", err)
	}

	// The position has no entitlement for this type and the window is far
	// beyond any quota; the unlimited flag admits it regardless.
	first := submitFor(t, app, f.employeeID, unlimitedID, "2026-06-01", "2026-06-30")
	if _, err := app.Leave.Approve(ctx, first.ID, f.approverID); err != nil {
		t.Fatalf("approve on unlimited type: %v", err)
	}

	second := submitFor(t, app, f.employeeID, unlimitedID, "2026-07-01", "2026-07-31")
	if _, err := app.Leave.Approve(ctx, second.ID, f.approverID); err != nil {
		t.Fatalf("approve despite accumulated usage: %v", err)
	}
}

func TestDeleteApprovedRevertsAsAdmin(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)
	ctx := context.Background()

	req := submitDays(t, app, f, "2026-07-01", "2026-07-03")
	if _, err := app.Leave.Approve(ctx, req.ID, f.approverID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if used := usedDuration(t, app, f); used.Days != 3 {
		t.Fatalf("expected 3 days used, got %+v", used)
	}

	if err := app.Leave.Delete(ctx, req.ID, f.employeeID, false); !errors.Is(err, leave.ErrInvalidState) {
		t.Fatalf("employee delete of approved request should fail, got %v", err)
	}

	if err := app.Leave.Delete(ctx, req.ID, f.approverID, true); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if used := usedDuration(t, app, f); used.Days != 0 {
		t.Fatalf("expected usage reverted after delete, got %+v", used)
	}

	var count int
	if err := app.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests WHERE id = $1", req.ID).Scan(&count); err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if count != 0 {
		t.Fatal("expected request row removed")
	}
}

func usageRowCount(t *testing.T, app *server.App, f fixture) int {
	t.Helper()
	var count int
	err := app.DB.QueryRow(context.Background(), `
    SELECT COUNT(1) FROM usage_records WHERE user_id = $1 AND leave_type_id = $2
  `, f.employeeID, f.leaveTypeID).Scan(&count)
	if err != nil {
		t.Fatalf("count usage rows: %v", err)
	}
	return count
}

func TestForcedResetClearsUsage(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)
	other := newFixture(t, app)
	ctx := context.Background()

	req := submitDays(t, app, f, "2026-08-03", "2026-08-04")
	if _, err := app.Leave.Approve(ctx, req.ID, f.approverID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	otherReq := submitDays(t, app, other, "2026-08-03", "2026-08-05")
	if _, err := app.Leave.Approve(ctx, otherReq.ID, other.approverID); err != nil {
		t.Fatalf("approve out-of-scope employee: %v", err)
	}

	midYear := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	if _, err := app.Ledger.ResetYear(ctx, app.DB, quota.ResetOptions{PositionID: f.positionID}, midYear); !errors.Is(err, quota.ErrResetNotDue) {
		t.Fatalf("expected reset not due off the year boundary, got %v", err)
	}

	summary, err := app.Ledger.ResetYear(ctx, app.DB, quota.ResetOptions{PositionID: f.positionID, Force: true}, midYear)
	if err != nil {
		t.Fatalf("forced reset: %v", err)
	}
	if summary.Positions != 1 || summary.Employees != 1 {
		t.Fatalf("unexpected reset scope: %+v", summary)
	}
	if used := usedDuration(t, app, f); used.Days != 0 || used.Hours != 0 {
		t.Fatalf("expected usage zeroed after reset, got %+v", used)
	}
	if usageRowCount(t, app, f) != 1 {
		t.Fatal("zero strategy must keep the usage row for audit history")
	}
	if used := usedDuration(t, app, other); used.Days != 3 {
		t.Fatalf("reset scoped to another position must not touch this usage, got %+v", used)
	}
}

func TestForcedResetDeleteStrategyRemovesRows(t *testing.T) {
	app := newTestApp(t)
	f := newFixture(t, app)
	ctx := context.Background()

	req := submitDays(t, app, f, "2026-09-07", "2026-09-08")
	if _, err := app.Leave.Approve(ctx, req.ID, f.approverID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	midYear := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	summary, err := app.Ledger.ResetYear(ctx, app.DB, quota.ResetOptions{
		PositionID: f.positionID,
		Force:      true,
		Strategy:   quota.ResetDelete,
	}, midYear)
	if err != nil {
		t.Fatalf("forced delete reset: %v", err)
	}
	if summary.Rows != 1 {
		t.Fatalf("expected one usage row removed, got %+v", summary)
	}
	if usageRowCount(t, app, f) != 0 {
		t.Fatal("delete strategy must remove the usage row")
	}
}
