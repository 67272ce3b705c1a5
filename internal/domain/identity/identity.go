package identity

import "context"

// Identity is the authenticated user as seen by the profile editor.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Provider supplies the current identity. ok is false while nobody is authenticated.
type Provider interface {
	Current(ctx context.Context) (Identity, bool)
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext reads the identity stored by WithIdentity.
type FromContext struct{}

func (FromContext) Current(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}

// Static always reports the same identity. The zero value is unauthenticated.
type Static Identity

func (s Static) Current(context.Context) (Identity, bool) {
	if s.ID == "" {
		return Identity{}, false
	}
	return Identity(s), true
}
