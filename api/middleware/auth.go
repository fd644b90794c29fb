package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/crowdvault/crowdvault-backend/api/responses"
	pkgAuth "github.com/crowdvault/crowdvault-backend/pkg/auth"
	"github.com/crowdvault/crowdvault-backend/pkg/config"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// caller's identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.Identity == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
				return
			}

			ctx := WithIdentity(r.Context(), claims.Identity)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.Identity.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
