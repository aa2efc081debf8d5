package identity

import "context"

// ctxKey is a private type for context keys to avoid collisions
type ctxKey struct{}

var requestContextKey ctxKey

// NewContext returns a context carrying the authenticated request context.
func NewContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// FromContext retrieves the request context stored by the authentication
// middleware. Returns nil when the request was anonymous or no middleware
// ran.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey).(*RequestContext)
	return rc
}
