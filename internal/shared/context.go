package shared

import "context"

type sessionContextKey struct{}

type identityContextKey struct{}

// Identity describes the authenticated actor attached to a request.
// UserID is zero for anonymous requests.
type Identity struct {
	UserID     int64
	Username   string
	LegacyRole int
}

// Authenticated reports whether the identity carries a real user.
func (i *Identity) Authenticated() bool {
	return i != nil && i.UserID != 0
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context, nil when anonymous.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
