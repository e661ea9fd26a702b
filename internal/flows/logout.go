package flows

import (
	"context"

	"github.com/MrEthical07/tokenguard/jwt"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Verify func(string) (*jwt.Claims, error)
	Revoke func(context.Context, string) error
}

// LogoutResult reports the verified claims and the revoke outcome.
// Verified is false when the token never reached the store.
type LogoutResult struct {
	Claims   *jwt.Claims
	Verified bool
	Err      error
}

// RunLogout verifies token and then revokes its raw string.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) LogoutResult {
	claims, err := deps.Verify(token)
	if err != nil {
		return LogoutResult{Err: err}
	}

	return LogoutResult{
		Claims:   claims,
		Verified: true,
		Err:      deps.Revoke(ctx, token),
	}
}
