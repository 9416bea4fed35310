package auth

import (
	"context"

	"github.com/secmon-lab/lectern/pkg/domain/types"
)

// Principal is the validated identity attached to a request after
// successful token verification. It carries identity only; whether the
// user may act on a given lecture is delegated to the identity service.
type Principal struct {
	UserID types.UserID
}

type ctxKey struct{}

// ContextWithPrincipal returns a new context with the principal attached
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFromContext retrieves the principal from the context.
// Returns nil if no principal is attached; callers that require one
// must treat nil as unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}
