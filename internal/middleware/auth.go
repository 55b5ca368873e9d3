package middleware

import (
	"bugboard/internal/auth"
	"bugboard/internal/config"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "identity"

// BoardOwnerKey is the Locals key ResolveBoard stores the board owner under.
const BoardOwnerKey = "boardOwner"

// Authenticate rejects the request with the same 401 body whatever the
// reason: no credentials, a bad token, or an unknown or expired session.
func Authenticate(c *fiber.Ctx) error {
	var id *auth.Identity
	if config.Auth != nil {
		id = config.Auth.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization), c.Cookies(config.Cfg.SessionCookie))
	}
	if id == nil {
		logger.SecurityLogger.Warn("Unauthorized request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		return Unauthorized(c)
	}
	c.Locals(identityKey, *id)
	return c.Next()
}

func Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Unauthorized",
		"success": false,
		"status":  fiber.StatusUnauthorized,
	})
}

// ResolveBoard stores the caller's board owner for the handlers. It must run
// after Authenticate.
func ResolveBoard(c *fiber.Ctx) error {
	id := CurrentIdentity(c)
	owner, err := config.Boards.ResolveBoardOwner(c.UserContext(), id)
	if err != nil {
		logger.ErrorLogger.Error("Error resolving board owner", zap.String("user_id", id.UserID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error resolving board",
			"success": false,
			"status":  fiber.StatusInternalServerError,
		})
	}
	c.Locals(BoardOwnerKey, owner)
	return c.Next()
}

func CurrentIdentity(c *fiber.Ctx) auth.Identity {
	id, _ := c.Locals(identityKey).(auth.Identity)
	return id
}

func BoardOwner(c *fiber.Ctx) string {
	owner, _ := c.Locals(BoardOwnerKey).(string)
	return owner
}
