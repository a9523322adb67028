package directoryhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/directory"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Store *directory.Store
}

func NewHandler(store *directory.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) HandleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

type namePayload struct {
	Name string `json:"name"`
}

func (h *Handler) HandleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Store.CreateDepartment(r.Context(), strings.TrimSpace(payload.Name))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to create department", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")
	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	err := h.Store.UpdateDepartment(r.Context(), departmentID, strings.TrimSpace(payload.Name))
	if h.failOnError(w, r, err, "failed to update department") {
		return
	}
	api.Success(w, map[string]string{"id": departmentID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")
	err := h.Store.DeleteDepartment(r.Context(), departmentID)
	if h.failOnError(w, r, err, "failed to delete department") {
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.Store.ListPositions(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list positions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, positions, middleware.GetRequestID(r.Context()))
}

type positionPayload struct {
	Name      string `json:"name"`
	AutoReset bool   `json:"autoReset"`
}

func (h *Handler) HandleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var payload positionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Store.CreatePosition(r.Context(), strings.TrimSpace(payload.Name), payload.AutoReset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to create position", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "positionID")
	var payload positionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	err := h.Store.UpdatePosition(r.Context(), positionID, strings.TrimSpace(payload.Name), payload.AutoReset)
	if h.failOnError(w, r, err, "failed to update position") {
		return
	}
	api.Success(w, map[string]string{"id": positionID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "positionID")
	err := h.Store.DeletePosition(r.Context(), positionID)
	if h.failOnError(w, r, err, "failed to delete position") {
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	users, total, err := h.Store.ListUsers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"users": users, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	user, err := h.Store.UserByID(r.Context(), userID)
	if h.failOnError(w, r, err, "failed to load user") {
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

// HandleProfile returns the authenticated caller's own directory record.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	record, err := h.Store.UserByID(r.Context(), user.UserID)
	if h.failOnError(w, r, err, "failed to load profile") {
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

type createUserPayload struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId"`
	PositionID   string `json:"positionId"`
	LineUserID   string `json:"lineUserId"`
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload createUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("name", payload.Name, "name is required")
	if len(payload.Password) < 8 {
		v.Add("password", "password must be at least 8 characters")
	}
	v.Enum("role", payload.Role, []string{auth.RoleAdmin, auth.RoleApprover, auth.RoleEmployee}, "role must be admin, approver, or employee")
	v.Required("role", payload.Role, "role is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	roleID, err := h.Store.RoleIDByName(r.Context(), strings.ToLower(strings.TrimSpace(payload.Role)))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_role", "unknown role", middleware.GetRequestID(r.Context()))
		return
	}
	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to hash password", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateUser(r.Context(), directory.CreateUserInput{
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		Name:         strings.TrimSpace(payload.Name),
		PasswordHash: hash,
		RoleID:       roleID,
		DepartmentID: payload.DepartmentID,
		PositionID:   payload.PositionID,
		LineUserID:   payload.LineUserID,
	})
	if err != nil {
		slog.Error("create user failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "db_error", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

type updateUserPayload struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId"`
	PositionID   string `json:"positionId"`
	LineUserID   string `json:"lineUserId"`
	Status       string `json:"status"`
}

func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var payload updateUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("role", payload.Role, "role is required")
	v.Enum("role", payload.Role, []string{auth.RoleAdmin, auth.RoleApprover, auth.RoleEmployee}, "role must be admin, approver, or employee")
	v.Enum("status", payload.Status, []string{"active", "inactive"}, "status must be active or inactive")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if payload.Status == "" {
		payload.Status = "active"
	}

	roleID, err := h.Store.RoleIDByName(r.Context(), strings.ToLower(strings.TrimSpace(payload.Role)))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_role", "unknown role", middleware.GetRequestID(r.Context()))
		return
	}

	err = h.Store.UpdateUser(r.Context(), userID, directory.UpdateUserInput{
		Name:         strings.TrimSpace(payload.Name),
		RoleID:       roleID,
		DepartmentID: payload.DepartmentID,
		PositionID:   payload.PositionID,
		LineUserID:   payload.LineUserID,
		Status:       payload.Status,
	})
	if h.failOnError(w, r, err, "failed to update user") {
		return
	}
	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	err := h.Store.DeleteUser(r.Context(), userID)
	if h.failOnError(w, r, err, "failed to deactivate user") {
		return
	}
	api.Success(w, map[string]string{"status": "inactive"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failOnError(w http.ResponseWriter, r *http.Request, err error, fallback string) bool {
	if err == nil {
		return false
	}
	requestID := middleware.GetRequestID(r.Context())
	if errors.Is(err, directory.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
		return true
	}
	slog.Error("directory handler error", "err", err, "requestId", requestID)
	api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, requestID)
	return true
}
