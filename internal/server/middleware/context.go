package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/auth"
)

type contextKey string

// Keys under which Auth stores the caller's identity.
const (
	ContextKeyTenantID contextKey = "tenant_id"
	ContextKeyUserID   contextKey = "user_id"
	ContextKeyUserRole contextKey = "role"
)

// WithIdentity returns a copy of ctx carrying the tenant, user and role of id.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	ctx = context.WithValue(ctx, ContextKeyTenantID, id.TenantID)
	ctx = context.WithValue(ctx, ContextKeyUserID, id.UserID)
	return context.WithValue(ctx, ContextKeyUserRole, id.Role)
}

func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return lookup[uuid.UUID](ctx, ContextKeyTenantID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return lookup[uuid.UUID](ctx, ContextKeyUserID)
}

func RoleFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, ContextKeyUserRole)
}

func lookup[T any](ctx context.Context, key contextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// writeProblem writes a minimal problem+json body for requests rejected
// before they reach huma.
func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"title":%q,"status":%d,"detail":%q}`, http.StatusText(status), status, detail)
}
