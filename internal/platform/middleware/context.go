package middleware

import "context"

type contextKeyUserID struct{}
type contextKeyRoles struct{}
type contextKeyRequestID struct{}

var (
	ctxKeyUserID    = contextKeyUserID{}
	ctxKeyRoles     = contextKeyRoles{}
	ctxKeyRequestID = contextKeyRequestID{}
)

// GetUserID retrieves the authenticated user ID from the context. Empty when
// the request was not authenticated.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(ctxKeyUserID).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetRoles retrieves the authenticated role set from the context.
func GetRoles(ctx context.Context) []string {
	roles, ok := ctx.Value(ctxKeyRoles).([]string)
	if !ok {
		return nil
	}
	return roles
}

// GetRequestID retrieves the request correlation ID from the context.
func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(ctxKeyRequestID).(string)
	if !ok {
		return ""
	}
	return requestID
}

// WithIdentity is exposed for tests that need an authenticated context
// without running the full middleware chain.
func WithIdentity(ctx context.Context, userID string, roles []string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, ctxKeyRoles, roles)
}
