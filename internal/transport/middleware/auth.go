package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

// Authenticator validates an access token and returns the request identity.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*internal.AuthContext, error)
}

// AuthContext resolves the bearer token into an identity and attaches it to
// the request context. Requests without a usable token proceed anonymously;
// the route guards decide what anonymous requests may reach.
func AuthContext(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				logger.LoggerWrapper().Debug("token rejected", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := internal.ContextWithAuth(r.Context(), authCtx)
			ctx = logger.With(ctx, "principal_id", authCtx.PrincipalID, "principal_kind", string(authCtx.Kind))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
