// Package tenant carries the authenticated owner id through request contexts.
// It sits below every module so the auth middleware and the handlers share the
// contract without importing each other.
package tenant

import "context"

type contextKey string

const ownerKey contextKey = "owner_id"

// OwnerID returns the authenticated caller's id from the request context.
// Every tenant-scoped query is filtered by this value; it is threaded through
// context rather than held in any package-level state.
func OwnerID(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}

// WithOwner returns a context carrying the given owner id.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}
