package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/observability"
	"github.com/influencelytic/marketplace/internal/service"
)

const (
	// Identity headers set by the auth gateway in front of this service.
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	actorLocal = "actor"
)

// CorrelationMiddleware threads a request id through the user context and
// echoes it on the response.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), correlationID))
		c.Set(fiber.HeaderXRequestID, correlationID)
		return c.Next()
	}
}

// IdentityMiddleware resolves the acting user from the gateway headers.
// Requests without a parseable identity pass through with an empty actor;
// role checks in the services reject them where it matters.
func IdentityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(HeaderUserID))
		if userID == "" {
			return c.Next()
		}

		role, err := domain.ParseRole(c.Get(HeaderUserRole))
		if err != nil {
			return c.Next()
		}

		c.Locals(actorLocal, service.Actor{UserID: userID, Role: role})
		return c.Next()
	}
}

// ActorFromCtx returns the resolved actor; the zero Actor means anonymous.
func ActorFromCtx(c *fiber.Ctx) service.Actor {
	if actor, ok := c.Locals(actorLocal).(service.Actor); ok {
		return actor
	}
	return service.Actor{}
}
