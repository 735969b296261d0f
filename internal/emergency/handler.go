package emergency

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/transport"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

type ServiceAPI interface {
	AccessPatient(personnelID int64, query SearchQuery, reason, ipAddress string) (*AccessResult, error)
	EndSession(accessID string, personnelID int64) error
	ListAccessLog(limit int) ([]Access, error)
	ListOwnAccesses(personnelID int64, limit int) ([]Access, error)
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

// AccessPatient is the break-glass endpoint. The route guard has already
// checked the emergency-trigger flag; everything here is still audited.
func (h *Handler) AccessPatient(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := internal.AuthFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto AccessRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	query, err := dto.ToQuery()
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.AccessPatient(authCtx.PrincipalID, query, dto.Reason, transport.ClientIP(r))
	if err != nil {
		switch err {
		case ErrReasonRequired, ErrQueryRequired:
			h.WriteError(w, http.StatusBadRequest, err.Error())
		case ErrPatientNotFound:
			h.WriteError(w, http.StatusNotFound, "no patient matched the search")
		case ErrAuditWrite:
			h.WriteError(w, http.StatusServiceUnavailable, "emergency access unavailable")
		default:
			h.Logger.Error("emergency access failed", "error", err, "personnel_id", authCtx.PrincipalID)
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := internal.AuthFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	accessID := chi.URLParam(r, "accessID")
	if err := h.Service.EndSession(accessID, authCtx.PrincipalID); err != nil {
		switch err {
		case ErrAccessNotFound:
			h.WriteError(w, http.StatusNotFound, "access record not found")
		case ErrNotSessionOwner:
			h.WriteError(w, http.StatusForbidden, "only the accessing personnel can end the session")
		default:
			h.Logger.Error("end emergency session failed", "error", err, "access_id", accessID)
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "session ended"})
}

// ListAccessLog exposes the audit trail to administrators.
func (h *Handler) ListAccessLog(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)

	entries, err := h.Service.ListAccessLog(limit)
	if err != nil {
		h.Logger.Error("list emergency access log failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ListOwnAccesses lets personnel review their own emergency history.
func (h *Handler) ListOwnAccesses(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := internal.AuthFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	entries, err := h.Service.ListOwnAccesses(authCtx.PrincipalID, parseLimit(r))
	if err != nil {
		h.Logger.Error("list own emergency accesses failed", "error", err, "personnel_id", authCtx.PrincipalID)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
