// Package requestctx carries authenticated caller identity through context.
package requestctx

import "context"

// Caller identifies the authenticated user and the organization that scopes
// every catalog query the user makes.
type Caller struct {
	UserID           string
	OrganizationID   int64
	OrganizationCode string
}

// callerContextKey is the context key for the authenticated caller.
type callerContextKey struct{}

// WithCaller stores the authenticated caller in context.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the caller stored in context, if any. Callers
// without an organization scope never resolve.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	caller, ok := ctx.Value(callerContextKey{}).(Caller)
	if !ok || caller.OrganizationID == 0 {
		return Caller{}, false
	}
	return caller, true
}
