package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leavedesk/internal/domain/auth"
)

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if captured == "" {
		t.Fatal("expected a generated request id in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != captured {
		t.Fatalf("expected response header %q to match context id %q", got, captured)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "client-chosen")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "client-chosen" {
		t.Fatalf("expected client request id preserved, got %q", captured)
	}
}

func TestAuthAttachesUserContext(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", RoleID: "r1", RoleName: "approver"}, time.Hour)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	var user auth.UserContext
	var found bool
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, found = GetUser(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("expected user context from valid token")
	}
	if user.UserID != "u1" || user.RoleName != "approver" {
		t.Fatalf("unexpected user context: %+v", user)
	}
}

func TestAuthIgnoresBadToken(t *testing.T) {
	var found bool
	handler := Auth("test-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = GetUser(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if found {
		t.Fatal("expected no user context from invalid token")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous pass-through should not fail the request, got %d", rec.Code)
	}
}

type staticPermissions struct {
	allowed map[string]bool
}

func (s staticPermissions) HasPermission(_ context.Context, _, permission string) (bool, error) {
	return s.allowed[permission], nil
}

func TestRequirePermission(t *testing.T) {
	store := staticPermissions{allowed: map[string]bool{"leave.approve": true}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		permission string
		withUser   bool
		wantStatus int
	}{
		{name: "anonymous", permission: "leave.approve", withUser: false, wantStatus: http.StatusUnauthorized},
		{name: "granted", permission: "leave.approve", withUser: true, wantStatus: http.StatusNoContent},
		{name: "denied", permission: "quota.reset", withUser: true, wantStatus: http.StatusForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			handler := RequirePermission(tc.permission, store)(next)
			req := httptest.NewRequest("GET", "/", nil)
			if tc.withUser {
				ctx := WithUser(req.Context(), auth.UserContext{UserID: "u1", RoleID: "r1", RoleName: "approver"})
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := &rateLimiter{limit: 2, window: time.Minute, clients: make(map[string]*rateBucket)}
	now := time.Now()

	if !rl.allow("ip:1.2.3.4", now) || !rl.allow("ip:1.2.3.4", now) {
		t.Fatal("expected first two requests allowed")
	}
	if rl.allow("ip:1.2.3.4", now) {
		t.Fatal("expected third request within window denied")
	}
	if !rl.allow("ip:5.6.7.8", now) {
		t.Fatal("expected separate key unaffected")
	}
	if !rl.allow("ip:1.2.3.4", now.Add(2*time.Minute)) {
		t.Fatal("expected request after window reset allowed")
	}
}

func TestRateKeyPrefersUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	if got := rateKey(req); got != "ip:10.0.0.1" {
		t.Fatalf("expected ip key, got %q", got)
	}

	ctx := WithUser(req.Context(), auth.UserContext{UserID: "u9"})
	if got := rateKey(req.WithContext(ctx)); got != "user:u9" {
		t.Fatalf("expected user key, got %q", got)
	}
}

func drainBody(t *testing.T, limiter func(http.Handler) http.Handler, contentType string) error {
	t.Helper()
	var readErr error
	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set("Content-Type", contentType)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return readErr
}

func TestBodyLimitCapsJSON(t *testing.T) {
	err := drainBody(t, BodyLimit(8), "application/json")
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		t.Fatalf("expected oversized JSON body rejected, got %v", err)
	}
}

func TestBodyLimitSkipsMultipart(t *testing.T) {
	if err := drainBody(t, BodyLimit(8), "multipart/form-data; boundary=frame"); err != nil {
		t.Fatalf("multipart bodies must pass through uncapped, got %v", err)
	}
}

func TestUploadLimitCapsMultipart(t *testing.T) {
	err := drainBody(t, UploadLimit(8), "multipart/form-data; boundary=frame")
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		t.Fatalf("expected oversized multipart body rejected, got %v", err)
	}
}
