package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/transport"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

type ServiceAPI interface {
	RegisterPersonnel(dto RegisterPersonnelDTO) (*Personnel, error)
	RegisterPatient(dto RegisterPatientDTO) (*Patient, error)
	GetPersonnelByID(id int64) (*Personnel, error)
	GetPatientByID(id int64) (*Patient, error)
	DeactivatePersonnel(id int64) error
	DeactivatePatient(id int64) error
}

// VerificationStarter kicks off the email-verification OTP flow after
// registration. Implemented by the auth service.
type VerificationStarter interface {
	StartEmailVerification(ctx context.Context, principalID int64, kind internal.PrincipalKind, email string) error
}

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	Verification VerificationStarter
}

func NewHandler(svc ServiceAPI, verification VerificationStarter) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:  transport.NewBaseHandler(lg),
		Service:      svc,
		Verification: verification,
	}
}

// RegisterPersonnel handles POST /accounts/personnel
func (h *Handler) RegisterPersonnel(w http.ResponseWriter, r *http.Request) {
	var dto RegisterPersonnelDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.RegisterPersonnel(dto)
	if err != nil {
		h.writeRegisterError(w, err)
		return
	}

	if h.Verification != nil {
		if err := h.Verification.StartEmailVerification(r.Context(), p.ID, internal.KindPersonnel, p.Email); err != nil {
			h.Logger.Error("failed to start email verification", "error", err, "personnel_id", p.ID)
		}
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

// RegisterPatient handles POST /accounts/patients
func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var dto RegisterPatientDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.RegisterPatient(dto)
	if err != nil {
		h.writeRegisterError(w, err)
		return
	}

	if h.Verification != nil {
		if err := h.Verification.StartEmailVerification(r.Context(), p.ID, internal.KindPatient, p.Email); err != nil {
			h.Logger.Error("failed to start email verification", "error", err, "patient_id", p.ID)
		}
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

// GetCurrentPrincipal handles GET /accounts/me
func (h *Handler) GetCurrentPrincipal(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := internal.AuthFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch authCtx.Kind {
	case internal.KindPersonnel:
		p, err := h.Service.GetPersonnelByID(authCtx.PrincipalID)
		if err != nil {
			h.Logger.Error("failed to load personnel", "error", err, "principal_id", authCtx.PrincipalID)
			h.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		h.WriteJSON(w, http.StatusOK, p)
	case internal.KindPatient:
		p, err := h.Service.GetPatientByID(authCtx.PrincipalID)
		if err != nil {
			h.Logger.Error("failed to load patient", "error", err, "principal_id", authCtx.PrincipalID)
			h.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		h.WriteJSON(w, http.StatusOK, p)
	default:
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
	}
}

// Deactivate handles POST /accounts/me/deactivate
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := internal.AuthFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var err error
	switch authCtx.Kind {
	case internal.KindPersonnel:
		err = h.Service.DeactivatePersonnel(authCtx.PrincipalID)
	case internal.KindPatient:
		err = h.Service.DeactivatePatient(authCtx.PrincipalID)
	default:
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		h.Logger.Error("deactivation failed", "error", err, "principal_id", authCtx.PrincipalID)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeRegisterError(w http.ResponseWriter, err error) {
	h.Logger.Error("registration failed", "error", err)
	switch {
	case errors.Is(err, ErrDuplicateAccount):
		h.WriteError(w, http.StatusConflict, "account already exists")
	default:
		var vErr ValidationError
		if errors.As(err, &vErr) {
			h.WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
