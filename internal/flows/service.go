package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.Verify != nil && s.deps.Authenticate.IsRevoked != nil
}

func (s Service) Authenticate(ctx context.Context, header string) AuthenticateResult {
	return RunAuthenticate(ctx, header, s.deps.Authenticate)
}

func (s Service) AuthenticateToken(ctx context.Context, token string) AuthenticateResult {
	return RunAuthenticateToken(ctx, token, s.deps.Authenticate)
}

func (s Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	return RunLogin(ctx, identifier, password, s.deps.Login)
}

func (s Service) Logout(ctx context.Context, token string) LogoutResult {
	return RunLogout(ctx, token, s.deps.Logout)
}
