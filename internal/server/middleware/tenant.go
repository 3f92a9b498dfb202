package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequireTenant rejects requests whose identity carries no tenant. Every
// board and card lookup is scoped by it, so it must run right after Auth.
func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tenantID, ok := TenantIDFromContext(r.Context()); !ok || tenantID == uuid.Nil {
				writeProblem(w, http.StatusForbidden, "valid tenant required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
