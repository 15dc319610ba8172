package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/observability"
	"github.com/muniworks/land-office/internal/ratelimit"
	"github.com/muniworks/land-office/internal/repository"
)

const actorLocalsKey = "authenticatedActor"

// Middleware resolves the bearer token to an active directory user and
// stores the resulting actor on the request.
func Middleware(verifier *TokenVerifier, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if header == "" {
			return domain.ErrUnauthorized
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(header, bearerPrefix) {
			return domain.ErrUnauthorized
		}

		userID, err := verifier.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			return domain.ErrUnauthorized
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			return domain.ErrUnauthorized
		}
		if !user.IsActive {
			return domain.ErrUnauthorized
		}

		SetActor(c, domain.Actor{ID: user.ID, Role: user.Role})

		return c.Next()
	}
}

// SetActor stores the actor on the request and tags the request context
// with the actor id for logging.
func SetActor(c *fiber.Ctx, actor domain.Actor) {
	c.Locals(actorLocalsKey, actor)
	c.SetUserContext(observability.WithActorID(c.UserContext(), actor.ID))
}

// ActorFromContext returns the actor injected by Middleware.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := c.Locals(actorLocalsKey).(domain.Actor)
	if !ok || actor.ID == "" {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	return actor, nil
}

// RateLimitMiddleware caps per-actor mutation throughput. It must run
// after Middleware.
func RateLimitMiddleware(limiter ratelimit.RateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFromContext(c)
		if err != nil {
			return err
		}

		allowed, err := limiter.Allow(c.UserContext(), actor.ID)
		if err != nil {
			// A limiter outage must not take writes down with it.
			return c.Next()
		}
		if !allowed {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}

		return c.Next()
	}
}
