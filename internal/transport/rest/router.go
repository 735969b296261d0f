package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/hospital-management/internal/accounts"
	"github.com/frahmantamala/hospital-management/internal/auth"
	"github.com/frahmantamala/hospital-management/internal/emergency"
	"github.com/frahmantamala/hospital-management/internal/rbac"
	"github.com/frahmantamala/hospital-management/internal/transport/middleware"
	"github.com/frahmantamala/hospital-management/internal/transport/swagger"
)

// RegisterAllRoutes mounts the full API surface under /api/v1. Identity is
// computed once per request by the auth middleware; each group states its
// own guard.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	cache Pinger,
	authenticator middleware.Authenticator,
	authHandler *auth.Handler,
	accountsHandler *accounts.Handler,
	rbacHandler *rbac.Handler,
	emergencyHandler *emergency.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db, cache)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.AuthContext(authenticator))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Credential and session endpoints, open to anonymous callers.
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/personnel/login", authHandler.LoginPersonnel)
			sr.Post("/patient/login", authHandler.LoginPatient)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
			sr.Post("/password-reset/request", authHandler.RequestPasswordReset)
			sr.Post("/password-reset/confirm", authHandler.ConfirmPasswordReset)
			sr.Post("/unlock/request", authHandler.RequestUnlock)
			sr.Post("/unlock/confirm", authHandler.ConfirmUnlock)

			sr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireAuth)
				ar.Post("/logout-all", authHandler.LogoutAll)
				ar.Post("/verify-email", authHandler.VerifyEmail)
				ar.Post("/verify-email/resend", authHandler.ResendVerification)
			})
		})

		// Registration is open; activation happens through email verification.
		r.Post("/personnel/register", accountsHandler.RegisterPersonnel)
		r.Post("/patients/register", accountsHandler.RegisterPatient)

		r.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth)
			pr.Get("/me", accountsHandler.GetCurrentPrincipal)
		})

		// Role administration.
		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireAdmin)
			ar.Get("/roles", rbacHandler.ListRoles)
			ar.Post("/roles/grant", rbacHandler.GrantRole)
			ar.Post("/roles/revoke", rbacHandler.RevokeRole)
			ar.Get("/personnel/{personnelID}/roles", rbacHandler.ListAssignments)
			ar.Post("/accounts/deactivate", accountsHandler.Deactivate)
		})

		// Break-glass endpoints: verified personnel with the emergency flag.
		r.Route("/emergency", func(er chi.Router) {
			er.Group(func(gr chi.Router) {
				gr.Use(middleware.RequireVerified)
				gr.Use(middleware.RequireEmergencyTrigger)
				gr.Post("/access", emergencyHandler.AccessPatient)
				gr.Post("/access/{accessID}/end", emergencyHandler.EndSession)
				gr.Get("/access/mine", emergencyHandler.ListOwnAccesses)
			})

			er.Group(func(gr chi.Router) {
				gr.Use(middleware.RequireAdmin)
				gr.Get("/access-log", emergencyHandler.ListAccessLog)
			})
		})
	})
}
