package composite

import (
	"context"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// Auth operations are never routed: identity is platform-wide, so every
// call delegates to the default route's backend.

func (r *Router) Register(ctx context.Context, email, password string) (*types.User, error) {
	return r.def.provider.Register(ctx, email, password)
}

func (r *Router) Login(ctx context.Context, email, password string) (*types.Session, error) {
	return r.def.provider.Login(ctx, email, password)
}

func (r *Router) Logout(ctx context.Context, token string) error {
	return r.def.provider.Logout(ctx, token)
}

func (r *Router) ValidateToken(ctx context.Context, token string) (*types.User, error) {
	return r.def.provider.ValidateToken(ctx, token)
}

func (r *Router) RefreshSession(ctx context.Context, refreshToken string) (*types.Session, error) {
	return r.def.provider.RefreshSession(ctx, refreshToken)
}

func (r *Router) VerifyTwoFactor(ctx context.Context, pendingToken, code string) (*types.Session, error) {
	return r.def.provider.VerifyTwoFactor(ctx, pendingToken, code)
}
