package handlers

import (
	"strings"

	"bugboard/internal/config"
	"bugboard/internal/middleware"
	"bugboard/internal/models"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ListComments returns a task's comments oldest first. The task must be on
// the caller's board.
func ListComments(c *fiber.Ctx) error {
	ctx := c.UserContext()
	taskID := c.Params("id")
	if _, err := config.Store.GetTask(ctx, middleware.BoardOwner(c), taskID); err != nil {
		return storeError(c, err, "Task not found", "loading task")
	}

	comments, err := config.Store.ListComments(ctx, taskID)
	if err != nil {
		return storeError(c, err, "Task not found", "listing comments")
	}
	return respond(c, fiber.StatusOK, "Comments retrieved", comments)
}

func CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return respondError(c, fiber.StatusBadRequest, "Content is required")
	}

	ctx := c.UserContext()
	owner := middleware.BoardOwner(c)
	taskID := c.Params("id")
	if _, err := config.Store.GetTask(ctx, owner, taskID); err != nil {
		return storeError(c, err, "Task not found", "loading task")
	}

	id := middleware.CurrentIdentity(c)
	comment, err := config.Store.CreateComment(ctx, &models.Comment{
		TaskID:    taskID,
		UserID:    id.UserID,
		UserEmail: id.Email,
		Content:   content,
	})
	if err != nil {
		return storeError(c, err, "Task not found", "creating comment")
	}

	logger.AuditLogger.Info("Comment created", zap.String("task_id", taskID), zap.String("user_id", id.UserID))
	config.Hub.Publish(ctx, owner, EventCommentCreated, comment)
	return respond(c, fiber.StatusCreated, "Comment created successfully", comment)
}
