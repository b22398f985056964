package token

import "context"

// Identity is the resolved caller attached to a request after the bearer
// token has been verified.
type Identity struct {
	UserID int64
	Email  string
}

type contextKey struct{}

// ContextWithIdentity returns a child context carrying the identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity attached by the auth middleware.
// The second return is false for requests that never passed through it.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
