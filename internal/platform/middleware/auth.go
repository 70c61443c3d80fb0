package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"turfwars/pkg/requestcontext"

	id "turfwars/pkg/domain"
)

// Claims is the identity the upstream auth service asserted for the caller.
type Claims struct {
	UserID id.UserID
	Level  int
}

// TokenValidator validates an identity token issued by the external auth
// collaborator. This core never issues tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// caller identity into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authz, "Bearer ")
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "token rejected",
					"error", err.Error(),
					"request_id", requestcontext.RequestID(r.Context()),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx := requestcontext.WithCaller(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
