package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/domain/quota"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

const maxMultipartBytes = 16 << 20

type Handler struct {
	Service *leave.Service
	Notify  *notifications.Service
}

func NewHandler(service *leave.Service, notify *notifications.Service) *Handler {
	return &Handler{Service: service, Notify: notify}
}

func (h *Handler) HandleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListTypes(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list leave types", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

type leaveTypePayload struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Unlimited   bool   `json:"unlimited"`
	HourBased   bool   `json:"hourBased"`
	RequiresDoc bool   `json:"requiresDoc"`
}

func (h *Handler) HandleCreateType(w http.ResponseWriter, r *http.Request) {
	var payload leaveTypePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Enum("category", payload.Category, []string{leave.CategoryGeneral, leave.CategoryEmergency}, "category must be general or emergency")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if payload.Category == "" {
		payload.Category = leave.CategoryGeneral
	}

	id, err := h.Service.CreateType(r.Context(), leave.LeaveType{
		Name:        strings.TrimSpace(payload.Name),
		Category:    payload.Category,
		Unlimited:   payload.Unlimited,
		HourBased:   payload.HourBased,
		RequiresDoc: payload.RequiresDoc,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to create leave type", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateType(w http.ResponseWriter, r *http.Request) {
	typeID := chi.URLParam(r, "typeID")
	var payload leaveTypePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Enum("category", payload.Category, []string{leave.CategoryGeneral, leave.CategoryEmergency}, "category must be general or emergency")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	err := h.Service.UpdateType(r.Context(), leave.LeaveType{
		ID:          typeID,
		Name:        strings.TrimSpace(payload.Name),
		Category:    payload.Category,
		Unlimited:   payload.Unlimited,
		HourBased:   payload.HourBased,
		RequiresDoc: payload.RequiresDoc,
	})
	if h.failOnError(w, r, err, "failed to update leave type") {
		return
	}
	api.Success(w, map[string]string{"id": typeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteType(w http.ResponseWriter, r *http.Request) {
	typeID := chi.URLParam(r, "typeID")
	err := h.Service.DeleteType(r.Context(), typeID)
	if h.failOnError(w, r, err, "failed to delete leave type") {
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListHolidays(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			year = v
		}
	}
	holidays, err := h.Service.ListHolidays(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list holidays", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, holidays, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Date string `json:"date"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreateHoliday(r.Context(), date, strings.TrimSpace(payload.Name))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to create holiday", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	holidayID := chi.URLParam(r, "holidayID")
	err := h.Service.DeleteHoliday(r.Context(), holidayID)
	if h.failOnError(w, r, err, "failed to delete holiday") {
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type submitPayload struct {
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Reason      string `json:"reason"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	payload, uploads, err := parseSubmit(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	defer closeUploads(uploads)

	v := shared.NewValidator()
	v.Required("leaveTypeId", payload.LeaveTypeID, "leaveTypeId is required")
	startDate, _ := v.Date("startDate", payload.StartDate)
	endDate, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", startDate, "endDate", endDate)
	startTime, _ := v.Time("startTime", payload.StartTime)
	endTime, _ := v.Time("endTime", payload.EndTime)
	if (startTime == "") != (endTime == "") {
		v.Add("startTime", "startTime and endTime must be provided together")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	input := leave.SubmitInput{
		UserID:      user.UserID,
		LeaveTypeID: payload.LeaveTypeID,
		StartDate:   startDate,
		EndDate:     endDate,
		StartTime:   startTime,
		EndTime:     endTime,
		Reason:      strings.TrimSpace(payload.Reason),
	}
	req, err := h.Service.Submit(r.Context(), input, uploads)
	if h.failOnError(w, r, err, "failed to submit leave request") {
		return
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

// parseSubmit accepts either a JSON body or multipart form data with
// attachments under the "documents" field.
func parseSubmit(r *http.Request) (submitPayload, []leave.Upload, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var payload submitPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return submitPayload{}, nil, fmt.Errorf("invalid request payload")
		}
		return payload, nil, nil
	}

	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		return submitPayload{}, nil, fmt.Errorf("invalid multipart payload")
	}
	payload := submitPayload{
		LeaveTypeID: r.FormValue("leaveTypeId"),
		StartDate:   r.FormValue("startDate"),
		EndDate:     r.FormValue("endDate"),
		StartTime:   r.FormValue("startTime"),
		EndTime:     r.FormValue("endTime"),
		Reason:      r.FormValue("reason"),
	}
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["documents"]
	}
	uploads, err := openUploads(files)
	if err != nil {
		return submitPayload{}, nil, err
	}
	return payload, uploads, nil
}

func openUploads(files []*multipart.FileHeader) ([]leave.Upload, error) {
	uploads := make([]leave.Upload, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			closeUploads(uploads)
			return nil, fmt.Errorf("unreadable attachment %q", header.Filename)
		}
		uploads = append(uploads, leave.Upload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        file,
		})
	}
	return uploads, nil
}

func closeUploads(uploads []leave.Upload) {
	for _, upload := range uploads {
		if closer, ok := upload.Data.(io.Closer); ok {
			closer.Close()
		}
	}
}

func (h *Handler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 20, 100)
	result, err := h.Service.ListRequests(r.Context(), user, r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.GetRequest(r.Context(), requestID)
	if h.failOnError(w, r, err, "failed to load leave request") {
		return
	}
	if user.RoleName == auth.RoleEmployee && req.UserID != user.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your request", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	requestID := chi.URLParam(r, "requestID")
	result, err := h.Service.Approve(r.Context(), requestID, user.UserID)
	if h.failOnError(w, r, err, "failed to approve leave request") {
		return
	}
	h.notify(r, result.UserID, notifications.TypeLeaveApproved, "Leave request approved",
		fmt.Sprintf("Your %s request was approved.", result.LeaveTypeName))
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	requestID := chi.URLParam(r, "requestID")
	result, err := h.Service.Reject(r.Context(), requestID, user.UserID)
	if h.failOnError(w, r, err, "failed to reject leave request") {
		return
	}
	h.notify(r, result.UserID, notifications.TypeLeaveRejected, "Leave request rejected",
		fmt.Sprintf("Your %s request was rejected.", result.LeaveTypeName))
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	requestID := chi.URLParam(r, "requestID")
	err := h.Service.Delete(r.Context(), requestID, user.UserID, user.RoleName == auth.RoleAdmin)
	if h.failOnError(w, r, err, "failed to delete leave request") {
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	attachmentID := chi.URLParam(r, "attachmentID")

	attachment, file, err := h.Service.AttachmentFile(r.Context(), requestID, attachmentID)
	if h.failOnError(w, r, err, "failed to open attachment") {
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.FileSize, 10))
	if _, err := io.Copy(w, file); err != nil {
		slog.Warn("attachment stream interrupted", "attachmentId", attachmentID, "err", err)
	}
}

func (h *Handler) notify(r *http.Request, userID, ntype, title, body string) {
	ctx, cancel := contextWithoutCancel(r)
	defer cancel()
	if err := h.Notify.Notify(ctx, userID, ntype, title, body); err != nil {
		slog.Warn("notification failed", "userId", userID, "type", ntype, "err", err)
	}
}

// contextWithoutCancel detaches notification delivery from the request
// lifetime so a client disconnect after commit does not drop the message.
func contextWithoutCancel(r *http.Request) (ctx context.Context, cancel func()) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), 10*time.Second)
}

// failOnError maps domain errors onto the API envelope. It reports whether
// the response has been written.
func (h *Handler) failOnError(w http.ResponseWriter, r *http.Request, err error, fallback string) bool {
	if err == nil {
		return false
	}
	requestID := middleware.GetRequestID(r.Context())

	var exceeded *quota.ExceededError
	switch {
	case errors.Is(err, leave.ErrNotFound) || errors.Is(err, quota.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "request is not in a state that allows this action", requestID)
	case errors.Is(err, leave.ErrSelfApproval):
		api.Fail(w, http.StatusForbidden, "self_approval", "approvers cannot approve their own requests", requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "you cannot perform this action", requestID)
	case errors.Is(err, leave.ErrBadWindow):
		api.Fail(w, http.StatusBadRequest, "invalid_window", "invalid leave window", requestID)
	case errors.Is(err, quota.ErrNoEntitlement):
		api.Fail(w, http.StatusConflict, "no_entitlement", "no leave quota is configured for this position and leave type", requestID)
	case errors.As(err, &exceeded):
		api.Fail(w, http.StatusConflict, "quota_exceeded", exceeded.Error(), requestID)
	default:
		slog.Error("leave handler error", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, requestID)
	}
	return true
}
