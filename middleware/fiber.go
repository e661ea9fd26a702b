package middleware

import (
	"net/http"

	"github.com/MrEthical07/tokenguard"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type identityLocalsKey struct{}

// FiberGuard is Guard for Fiber apps. The identity is stored in c.Locals and
// the auth result in the user context.
func FiberGuard(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth == nil {
			return fiberReject(c, tokenguard.RejectStoreUnavailable)
		}

		// Fiber strings alias the request buffer, which is reused once the
		// handler returns; anything kept past the request must be copied.
		ip := utils.CopyString(c.IP())
		userAgent := utils.CopyString(c.Get(fiber.HeaderUserAgent))
		header := utils.CopyString(c.Get(fiber.HeaderAuthorization))

		ctx := requestContext(c.UserContext(), ip, userAgent)
		res, err := auth.AuthenticateHeader(ctx, header)
		if err != nil {
			return fiberReject(c, tokenguard.RejectReasonOf(err))
		}

		c.Locals(identityLocalsKey{}, res.Identity)
		c.SetUserContext(withAuthResult(c.UserContext(), res))
		return c.Next()
	}
}

// FiberIdentity returns the identity attached by FiberGuard.
func FiberIdentity(c *fiber.Ctx) (tokenguard.Identity, bool) {
	id, ok := c.Locals(identityLocalsKey{}).(tokenguard.Identity)
	return id, ok
}

func fiberReject(c *fiber.Ctx, reason tokenguard.RejectReason) error {
	status := reason.HTTPStatus()
	if status == http.StatusUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	return c.Status(status).SendString(rejectBody(reason))
}
