package rbac

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/transport"
	"github.com/frahmantamala/hospital-management/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListRoles() ([]Role, error)
	GrantRole(personnelID, roleID int64, assignedBy *int64, expiresAt *time.Time) (*Assignment, error)
	RevokeRole(personnelID, roleID int64) error
	ListAssignments(personnelID int64) ([]Assignment, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListRoles handles GET /roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles()
	if err != nil {
		h.Logger.Error("failed to list roles", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

// GrantRole handles POST /roles/grant
func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	var dto GrantRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var assignedBy *int64
	if authCtx, ok := internal.AuthFromContext(r.Context()); ok {
		assignedBy = &authCtx.PrincipalID
	}

	assignment, err := h.Service.GrantRole(dto.PersonnelID, dto.RoleID, assignedBy, dto.ExpiresAt)
	if err != nil {
		h.Logger.Error("role grant failed", "error", err, "personnel_id", dto.PersonnelID, "role_id", dto.RoleID)
		switch {
		case errors.Is(err, ErrRoleNotFound):
			h.WriteError(w, http.StatusNotFound, "role not found")
		case errors.Is(err, ErrInvalidExpiry):
			h.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, assignment)
}

// RevokeRole handles POST /roles/revoke
func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	var dto RevokeRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.RevokeRole(dto.PersonnelID, dto.RoleID); err != nil {
		h.Logger.Error("role revoke failed", "error", err, "personnel_id", dto.PersonnelID, "role_id", dto.RoleID)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAssignments handles GET /personnel/{id}/assignments
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	personnelID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid personnel id")
		return
	}

	assignments, err := h.Service.ListAssignments(personnelID)
	if err != nil {
		h.Logger.Error("failed to list assignments", "error", err, "personnel_id", personnelID)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, assignments)
}
