package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tarvale/coinledger/pkg/utils"
)

type ContextKey string

const AdminKey ContextKey = "admin"

// AdminMiddleware guards the approval gate: every admin route requires a
// bearer token issued by the login handler.
func AdminMiddleware(jwtService JWTServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, claims.Admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
