package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tandoor/internal/config"
	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/utils"
)

const (
	userContextKey = "currentUserID"
	roleContextKey = "currentUserRole"
)

// AuthMiddleware validates JWT tokens and loads the authenticated staff
// member's ID and role into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, role, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, userID)
		c.Locals(roleContextKey, role)
		return c.Next()
	}
}

// RequireRoles rejects requests whose authenticated role is not in the
// allowed set. Used after AuthMiddleware.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, role, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient role")
	}
}

// CurrentUser extracts the authenticated staff ID and role from context.
func CurrentUser(c *fiber.Ctx) (uuid.UUID, models.Role, bool) {
	idValue := c.Locals(userContextKey)
	roleValue := c.Locals(roleContextKey)
	if idValue == nil || roleValue == nil {
		return uuid.Nil, "", false
	}

	id, okID := idValue.(uuid.UUID)
	role, okRole := roleValue.(models.Role)
	if !okID || !okRole {
		return uuid.Nil, "", false
	}

	return id, role, true
}
