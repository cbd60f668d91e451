package auth

import (
	"context"

	"chorebank/internal/model"
)

type contextKey struct{}

// WithPrincipal attaches the resolved caller to the context. Authentication
// itself happens upstream; this package only carries the result.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(model.Principal)
	return p, ok
}

func IsParent(ctx context.Context) bool {
	p, ok := FromContext(ctx)
	return ok && p.Role == model.RoleParent
}

func CallerID(ctx context.Context) int64 {
	p, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return p.ID
}
