package handlers

import (
	"bugboard/internal/config"
	"bugboard/internal/middleware"
	myws "bugboard/internal/websocket"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// RequireUpgrade lets only websocket handshakes through to BoardSocket.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// BoardSocket streams events of the caller's board until the client goes
// away. Incoming messages are read and discarded.
var BoardSocket = websocket.New(func(conn *websocket.Conn) {
	owner, _ := conn.Locals(middleware.BoardOwnerKey).(string)
	client := &myws.Client{Conn: conn, Board: owner}
	config.Hub.Register(client)
	defer config.Hub.Unregister(client)

	logger.SystemLogger.Info("Board socket connected", zap.String("board", owner))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
})

func Healthz(c *fiber.Ctx) error {
	status := fiber.Map{"database": "ok"}
	code := fiber.StatusOK
	if config.DB != nil {
		if err := config.DB.PingContext(c.UserContext()); err != nil {
			status["database"] = "unavailable"
			code = fiber.StatusServiceUnavailable
		}
	}
	if config.RedisClient != nil {
		status["redis"] = "ok"
		if err := config.RedisClient.Ping(c.UserContext()).Err(); err != nil {
			status["redis"] = "unavailable"
		}
	}
	return c.Status(code).JSON(fiber.Map{
		"message": "ok",
		"success": code == fiber.StatusOK,
		"status":  code,
		"data":    status,
	})
}
