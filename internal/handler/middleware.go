package handler

import (
	"net/http"
	"strings"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// accessTokenCookie carries the access token for browser page loads.
const accessTokenCookie = "sb-access-token"

// OwnerAuthMiddleware checks that the Bearer token belongs to the owner in
// the {ownerId} route parameter. It is a no-op when verifier is disabled.
func OwnerAuthMiddleware(verifier *service.TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !verifier.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.Warn("auth: missing or malformed token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			ownerID := chi.URLParam(r, "ownerId")
			if err := verifier.AuthorizeOwner(token, ownerID); err != nil {
				logger.Warn("auth: owner check failed",
					zap.String("path", r.URL.Path),
					zap.String("owner_id", ownerID),
					zap.Error(err),
				)
				status, _, _ := classifyError(err)
				writeError(w, status, err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken reads the token from the Authorization header, falling back
// to the access token cookie.
func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}
