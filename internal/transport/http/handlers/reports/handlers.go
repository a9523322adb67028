package reportshandler

import (
	"net/http"
	"time"

	"leavedesk/internal/domain/reports"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Service.Dashboard(r.Context(), time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to build dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Store.LeaveUsage(r.Context(), r.URL.Query().Get("departmentId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to build usage report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUsageCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.UsageCSV(r.Context(), r.URL.Query().Get("departmentId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_error", "failed to render CSV report", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-usage.csv"`)
	w.Write(data)
}

func (h *Handler) HandleUsagePDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.UsagePDF(r.Context(), r.URL.Query().Get("departmentId"), time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_error", "failed to render PDF report", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-usage.pdf"`)
	w.Write(data)
}
