package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/counseling-portal-backend/internal/services"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/logger"
)

type contextKey string

const adminIDKey contextKey = "admin_id"

// BearerToken returns the token of an "Authorization: Bearer <token>" header, or "".
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAdmin rejects requests without a valid admin session.
func RequireAdmin(identity services.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, "Authorization token required")
				return
			}

			adminID, ok, err := identity.ResolveAdmin(r.Context(), token)
			if err != nil {
				logger.Errorf("auth.admin: resolving session: %v", err)
				unauthorized(w, "Invalid or expired session")
				return
			}
			if !ok {
				unauthorized(w, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminID returns the admin resolved by RequireAdmin.
func AdminID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(adminIDKey).(string)
	return id, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
