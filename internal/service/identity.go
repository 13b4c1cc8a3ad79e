package service

import "context"

// Identity is the resolved caller of a request.  The zero value is the
// anonymous identity.
type Identity struct {
	UserID string
	Email  string
}

// Anonymous is the identity of a caller without valid credentials.
var Anonymous = Identity{}

// Authenticated reports whether the identity names a user.
func (i Identity) Authenticated() bool { return i.UserID != "" }

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.  It is called once per
// request, before any resolver runs.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached to ctx, or Anonymous.
func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
