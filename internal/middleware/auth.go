package middleware

import (
	"strings"

	"go-fwpm/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT tokens and injects user claims into context
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			// Inject dummy context for dev
			dummyClaims := &utils.UserClaims{
				UserID: "dev-operator",
				Roles:  []string{"importer"},
			}
			c.Locals(utils.UserClaimsKey, dummyClaims)
			c.Locals("user_id", dummyClaims.UserID)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		// Extract token from "Bearer <token>"
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated operator id, or "" when unauthenticated
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}
