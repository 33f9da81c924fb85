package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zzuhann/stellar/internal/api/problem"
	"github.com/zzuhann/stellar/internal/auth"
	"github.com/zzuhann/stellar/internal/domain/moderation"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorFrom returns the verified actor attached by the auth middleware, if
// any.
func ActorFrom(ctx context.Context) (moderation.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(moderation.Actor)
	return actor, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(jwt *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := jwt.Validate(bearerToken(r))
			if err != nil {
				problem.Write(w, http.StatusUnauthorized, "Unauthorized", "valid bearer token required")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

// OptionalAuth attaches an actor when a valid token is present and passes
// anonymous requests through untouched.
func OptionalAuth(jwt *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if actor, err := jwt.Validate(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), actorKey, actor))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
