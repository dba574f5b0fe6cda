package middleware

import (
	"net/http"

	"github.com/timonlabs/studyshare/internal/auth"
	"github.com/timonlabs/studyshare/internal/models"
)

// RequireAuth validates the bearer token (signature, expiry, revocation) and
// attaches the authenticated claims to the request context.
func RequireAuth(tokens *auth.TokenService, revoked auth.Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r)
			if token == "" {
				http.Error(w, `{"message":"Access token required"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				http.Error(w, `{"message":"Invalid or expired token"}`, http.StatusForbidden)
				return
			}

			// A revocation-check failure denies rather than letting a
			// possibly logged-out token through.
			if gone, err := revoked.IsRevoked(r.Context(), claims.ID); err != nil || gone {
				http.Error(w, `{"message":"Invalid or expired token"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), claims)))
		})
	}
}

// RequireAdmin gates a route to admin tokens. Must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.IdentityFromContext(r.Context())
		if !ok || claims.Role != models.RoleAdmin {
			http.Error(w, `{"message":"Admin access required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
