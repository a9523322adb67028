package quotahandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/quota"
	"leavedesk/internal/platform/jobs"
	"leavedesk/internal/platform/querier"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	DB     querier.DB
	Ledger *quota.Ledger
	Jobs   *jobs.Service
}

func NewHandler(db querier.DB, ledger *quota.Ledger, jobsSvc *jobs.Service) *Handler {
	return &Handler{DB: db, Ledger: ledger, Jobs: jobsSvc}
}

// HandleMyBalances reports the caller's remaining quota per leave type.
func (h *Handler) HandleMyBalances(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	balances, err := h.Ledger.Balances(r.Context(), h.DB, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to load balances", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

// HandleUserBalances reports another user's balances, for approvers and admins.
func (h *Handler) HandleUserBalances(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	balances, err := h.Ledger.Balances(r.Context(), h.DB, userID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to load balances", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListEntitlements(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "positionID")
	entitlements, err := quota.ListEntitlements(r.Context(), h.DB, positionID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list entitlements", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entitlements, middleware.GetRequestID(r.Context()))
}

type entitlementPayload struct {
	LeaveTypeID string `json:"leaveTypeId"`
	Days        int    `json:"days"`
}

func (h *Handler) HandleUpsertEntitlement(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "positionID")
	var payload entitlementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("leaveTypeId", payload.LeaveTypeID, "leaveTypeId is required")
	if payload.Days < 0 {
		v.Add("days", "days must be zero or positive")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := quota.UpsertEntitlement(r.Context(), h.DB, positionID, payload.LeaveTypeID, payload.Days); err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to save entitlement", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"positionId":  positionID,
		"leaveTypeId": payload.LeaveTypeID,
		"days":        payload.Days,
	}, middleware.GetRequestID(r.Context()))
}

type resetPayload struct {
	PositionID string `json:"positionId"`
	Force      bool   `json:"force"`
	Strategy   string `json:"strategy"`
}

// HandleReset runs the yearly quota reset on demand. It executes through the
// jobs service so the run is recorded alongside scheduled resets.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload resetPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	strategy := quota.ResetStrategy("")
	if payload.Strategy != "" {
		parsed, ok := quota.ParseResetStrategy(payload.Strategy)
		if !ok {
			api.Fail(w, http.StatusBadRequest, "invalid_strategy", "strategy must be zero or delete", middleware.GetRequestID(r.Context()))
			return
		}
		strategy = parsed
	}

	opts := quota.ResetOptions{PositionID: payload.PositionID, Force: payload.Force, Strategy: strategy}
	result, err := h.Jobs.RunNow(r.Context(), jobs.JobQuotaReset, func(ctx context.Context) (any, error) {
		return h.Ledger.ResetYear(ctx, h.DB, opts, time.Now())
	})
	if err != nil {
		if errors.Is(err, quota.ErrResetNotDue) {
			api.Fail(w, http.StatusConflict, "reset_not_due", "yearly reset is not due; pass force to override", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Error("quota reset failed", "err", err, "actorId", user.UserID)
		api.Fail(w, http.StatusInternalServerError, "reset_error", "quota reset failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}
