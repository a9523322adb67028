package adminhandler

import (
	"net/http"
	"strconv"

	"leavedesk/internal/platform/jobs"
	"leavedesk/internal/platform/metrics"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
)

type Handler struct {
	Metrics *metrics.Collector
	Jobs    *jobs.Service
}

func NewHandler(collector *metrics.Collector, jobsSvc *jobs.Service) *Handler {
	return &Handler{Metrics: collector, Jobs: jobsSvc}
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.Metrics == nil {
		api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics collection is disabled", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleJobRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	runs, err := h.Jobs.ListRuns(r.Context(), limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
