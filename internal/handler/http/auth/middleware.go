package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"summarize-pro/internal/handler/http/respond"
	authservice "summarize-pro/internal/service/auth"
)

type ctxKey string

const ctxUser ctxKey = "user"

// UserFromContext returns the subject of the verified admin token.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(ctxUser).(string)
	return user, ok
}

// RequireAdmin rejects requests without a valid admin bearer token:
// 401 for a missing or invalid token, 403 for another role.
func RequireAdmin(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			user, role, err := bearer(issuer, r.Header.Get("Authorization"))
			RecordAuthzCheckDuration(time.Since(start).Seconds())
			if err != nil {
				RecordForbiddenAttempt("unauthenticated", r.Method)
				w.Header().Set("WWW-Authenticate", `Bearer realm="summarize-pro"`)
				respond.SafeError(w, http.StatusUnauthorized, errors.New("invalid or missing bearer token"))
				return
			}
			if role != authservice.RoleAdmin {
				RecordForbiddenAttempt("role", r.Method)
				respond.SafeError(w, http.StatusForbidden, errors.New("admin role required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, user)))
		})
	}
}

func bearer(issuer *Issuer, header string) (string, string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", "", errors.New("missing bearer token")
	}
	return issuer.Verify(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
}
