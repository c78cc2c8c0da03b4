package system

import (
	"go-fwpm/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type DebugController struct{}

func NewDebugController() *DebugController {
	return &DebugController{}
}

// GetCurrentUser godoc
// @Summary      Get current operator
// @Description  Returns the identity carried by the bearer token
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /api/debug/me [get]
func (c *DebugController) GetCurrentUser(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no token claims"})
	}

	return ctx.JSON(fiber.Map{
		"user_id": claims.UserID,
		"roles":   claims.Roles,
	})
}
