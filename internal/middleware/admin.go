package middleware

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/dto"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired lets the request through when the token subject is a bot
// admin (owner, developer or admins table).
func AdminRequired(roles *services.RoleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		ok, err := roles.IsAdmin(c.UserContext(), userID)
		if err != nil {
			slog.Error("admin check failed", "user_id", userID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		c.Locals("admin_id", userID)
		return c.Next()
	}
}
