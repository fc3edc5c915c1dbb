package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/services"
)

// Authenticate verifies the bearer token and stores the caller in the request
// context. Requests without a valid token are rejected with 401.
func Authenticate(tokens *services.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenString) == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			actor, err := tokens.Parse(strings.TrimSpace(tokenString))
			if err != nil {
				slog.DebugContext(r.Context(), "rejected bearer token", slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// Authorize must run after Authenticate.
func Authorize(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := GetActorFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			for _, role := range roles {
				if role == actor.Role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, services.ErrForbiddenOperation.Error())
		})
	}
}
