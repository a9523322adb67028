package announcementshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/announcements"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Store *announcements.Store
}

func NewHandler(store *announcements.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	items, total, err := h.Store.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list announcements", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"announcements": items, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.Get(r.Context(), chi.URLParam(r, "announcementID"))
	if h.failOnError(w, r, err, "failed to load announcement") {
		return
	}
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

type announcementPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload announcementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	v.Required("body", payload.Body, "body is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Store.Create(r.Context(), strings.TrimSpace(payload.Title), payload.Body, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to create announcement", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	announcementID := chi.URLParam(r, "announcementID")
	var payload announcementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	v.Required("body", payload.Body, "body is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	err := h.Store.Update(r.Context(), announcementID, strings.TrimSpace(payload.Title), payload.Body)
	if h.failOnError(w, r, err, "failed to update announcement") {
		return
	}
	api.Success(w, map[string]string{"id": announcementID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.Store.Delete(r.Context(), chi.URLParam(r, "announcementID"))
	if h.failOnError(w, r, err, "failed to delete announcement") {
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failOnError(w http.ResponseWriter, r *http.Request, err error, fallback string) bool {
	if err == nil {
		return false
	}
	requestID := middleware.GetRequestID(r.Context())
	if errors.Is(err, announcements.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "announcement not found", requestID)
		return true
	}
	slog.Error("announcements handler error", "err", err, "requestId", requestID)
	api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, requestID)
	return true
}
