package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/transport"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

// ServiceAPI is the surface the HTTP layer depends on.
type ServiceAPI interface {
	LoginPersonnel(ctx context.Context, username, password string, meta TokenIssueMeta) (*AuthTokens, error)
	LoginPatient(ctx context.Context, email, password string, meta TokenIssueMeta) (*AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string, meta TokenIssueMeta) (*AuthTokens, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	LogoutAll(ctx context.Context, principalID int64, kind internal.PrincipalKind) error
	VerifyEmail(ctx context.Context, principalID int64, kind internal.PrincipalKind, code string) error
	StartEmailVerification(ctx context.Context, principalID int64, kind internal.PrincipalKind, email string) error
	RequestPasswordReset(ctx context.Context, kind internal.PrincipalKind, email, ipAddress string) error
	ConfirmPasswordReset(ctx context.Context, kind internal.PrincipalKind, email, code, newPassword string) error
	RequestUnlock(ctx context.Context, kind internal.PrincipalKind, email, ipAddress string) error
	ConfirmUnlock(ctx context.Context, kind internal.PrincipalKind, email, code string) error
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

func requestMeta(r *http.Request) TokenIssueMeta {
	return TokenIssueMeta{
		IPAddress: transport.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// kindFromDTO maps the optional user_type field to a principal kind,
// defaulting to personnel.
func kindFromDTO(userType string) internal.PrincipalKind {
	if internal.PrincipalKind(userType) == internal.KindPatient {
		return internal.KindPatient
	}
	return internal.KindPersonnel
}

func (h *Handler) LoginPersonnel(w http.ResponseWriter, r *http.Request) {
	var dto PersonnelLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.LoginPersonnel(r.Context(), dto.Username, dto.Password, requestMeta(r))
	if err != nil {
		h.writeLoginError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) LoginPatient(w http.ResponseWriter, r *http.Request) {
	var dto PatientLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.LoginPatient(r.Context(), dto.Email, dto.Password, requestMeta(r))
	if err != nil {
		h.writeLoginError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) writeLoginError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInvalidCredentials:
		h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case ErrAccountLocked:
		h.WriteError(w, http.StatusForbidden, "account is locked, try again later or request an unlock code")
	case ErrAccountNotVerified:
		h.WriteError(w, http.StatusForbidden, "account is not verified")
	case ErrAccountInactive:
		h.WriteError(w, http.StatusForbidden, "account is inactive")
	default:
		h.Logger.Error("login failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.Refresh(r.Context(), dto.RefreshToken, requestMeta(r))
	if err != nil {
		switch err {
		case ErrTokenExpired, ErrTokenInvalid, ErrTokenRevoked, ErrInvalidTokenType:
			h.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		case ErrAccountLocked, ErrAccountInactive:
			h.WriteError(w, http.StatusForbidden, "account cannot refresh session")
		default:
			h.Logger.Error("token refresh failed", "error", err)
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var dto LogoutDTO
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	accessToken := h.ExtractTokenFromHeader(r)
	if err := h.Service.Logout(r.Context(), accessToken, dto.RefreshToken); err != nil {
		h.Logger.Error("logout failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := internal.AuthFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Service.LogoutAll(r.Context(), authCtx.PrincipalID, authCtx.Kind); err != nil {
		h.Logger.Error("logout all failed", "error", err, "principal_id", authCtx.PrincipalID)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "all sessions ended"})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := internal.AuthFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto VerifyEmailDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.VerifyEmail(r.Context(), authCtx.PrincipalID, authCtx.Kind, dto.Code); err != nil {
		h.writeOTPError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := internal.AuthFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Service.StartEmailVerification(r.Context(), authCtx.PrincipalID, authCtx.Kind, authCtx.Email); err != nil {
		h.Logger.Error("resend verification failed", "error", err, "principal_id", authCtx.PrincipalID)
		h.WriteError(w, http.StatusInternalServerError, "could not send verification code")
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto PasswordResetRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.RequestPasswordReset(r.Context(), kindFromDTO(dto.UserType), dto.Email, transport.ClientIP(r)); err != nil {
		h.Logger.Error("password reset request failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	// Same response for known and unknown emails.
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a reset code has been sent"})
}

func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto PasswordResetConfirmDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.ConfirmPasswordReset(r.Context(), kindFromDTO(dto.UserType), dto.Email, dto.Code, dto.NewPassword); err != nil {
		h.writeOTPError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handler) RequestUnlock(w http.ResponseWriter, r *http.Request) {
	var dto UnlockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.RequestUnlock(r.Context(), kindFromDTO(dto.UserType), dto.Email, transport.ClientIP(r)); err != nil {
		h.Logger.Error("unlock request failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, an unlock code has been sent"})
}

func (h *Handler) ConfirmUnlock(w http.ResponseWriter, r *http.Request) {
	var dto UnlockConfirmDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.ConfirmUnlock(r.Context(), kindFromDTO(dto.UserType), dto.Email, dto.Code); err != nil {
		h.writeOTPError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "account unlocked"})
}

func (h *Handler) writeOTPError(w http.ResponseWriter, err error) {
	switch err {
	case ErrOTPInvalid:
		h.WriteError(w, http.StatusBadRequest, "invalid or expired verification code")
	case ErrOTPAttemptsExceeded:
		h.WriteError(w, http.StatusTooManyRequests, "too many attempts, request a new code")
	default:
		h.Logger.Error("otp flow failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
