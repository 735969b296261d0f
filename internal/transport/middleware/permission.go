package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/rbac"
)

func writeGuardError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": message,
	})
}

// RequireAuth admits only authenticated principals of either kind.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := internal.AuthFromContext(r.Context()); !ok {
			writeGuardError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission admits principals holding ANY of the listed permissions.
// Checks run against the frozen token snapshot, never the database.
func RequirePermission(permissions ...rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := internal.AuthFromContext(r.Context())
			if !ok {
				writeGuardError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			for _, p := range permissions {
				if authCtx.HasPermission(string(p)) {
					next.ServeHTTP(w, r)
					return
				}
			}

			slog.Warn("access denied: missing permission",
				"principal_id", authCtx.PrincipalID,
				"principal_kind", string(authCtx.Kind),
				"required", permissions,
				"path", r.URL.Path)
			writeGuardError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// RequirePersonnel admits staff principals only.
func RequirePersonnel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx, ok := internal.AuthFromContext(r.Context())
		if !ok {
			writeGuardError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if authCtx.Kind != internal.KindPersonnel {
			writeGuardError(w, http.StatusForbidden, "personnel access only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVerified admits only principals whose account passed verification.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx, ok := internal.AuthFromContext(r.Context())
		if !ok {
			writeGuardError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !authCtx.IsVerified {
			writeGuardError(w, http.StatusForbidden, "account verification required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireEmergencyTrigger gates the break-glass endpoints on the flag frozen
// into the token at issuance.
func RequireEmergencyTrigger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx, ok := internal.AuthFromContext(r.Context())
		if !ok {
			writeGuardError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if authCtx.Kind != internal.KindPersonnel || !authCtx.CanTriggerEmergency {
			slog.Warn("access denied: emergency trigger not permitted",
				"principal_id", authCtx.PrincipalID,
				"principal_kind", string(authCtx.Kind))
			writeGuardError(w, http.StatusForbidden, "emergency access not permitted for this role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin admits principals with the personnel-management capability.
func RequireAdmin(next http.Handler) http.Handler {
	return RequirePermission(rbac.PermManagePersonnel)(next)
}
