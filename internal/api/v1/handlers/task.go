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

// Board event types pushed to websocket subscribers.
const (
	EventTaskCreated    = "task.created"
	EventTaskUpdated    = "task.updated"
	EventTaskDeleted    = "task.deleted"
	EventCommentCreated = "comment.created"
)

type createTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	Status      string   `json:"status" validate:"omitempty,oneof=backlog todo in_progress in_review done"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=critical high medium low"`
	Type        string   `json:"type" validate:"omitempty,oneof=bug feature improvement task"`
	Labels      []string `json:"labels"`
	Assignee    string   `json:"assignee"`
	ReportID    string   `json:"report_id" validate:"omitempty,uuid"`
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// ListTasks returns the caller's board, newest first.
func ListTasks(c *fiber.Ctx) error {
	tasks, err := config.Store.ListTasks(c.UserContext(), middleware.BoardOwner(c))
	if err != nil {
		return storeError(c, err, "Tasks not found", "listing tasks")
	}
	return respond(c, fiber.StatusOK, "Tasks retrieved", tasks)
}

func CreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := config.Validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	owner := middleware.BoardOwner(c)
	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      orDefault(req.Status, models.StatusBacklog),
		Priority:    orDefault(req.Priority, models.PriorityMedium),
		Type:        orDefault(req.Type, models.TypeTask),
		Labels:      req.Labels,
		Assignee:    req.Assignee,
		UserID:      owner,
	}
	if req.ReportID != "" {
		task.ReportID = &req.ReportID
	}

	created, err := config.Store.CreateTask(c.UserContext(), task)
	if err != nil {
		return storeError(c, err, "Task not found", "creating task")
	}

	logger.AuditLogger.Info("Task created",
		zap.String("task_id", created.ID),
		zap.String("task_key", created.TaskKey),
		zap.String("board_owner", owner),
		zap.String("user_id", middleware.CurrentIdentity(c).UserID),
	)
	config.Hub.Publish(c.UserContext(), owner, EventTaskCreated, created)
	return respond(c, fiber.StatusCreated, "Task created successfully", created)
}

func GetTask(c *fiber.Ctx) error {
	task, err := config.Store.GetTask(c.UserContext(), middleware.BoardOwner(c), c.Params("id"))
	if err != nil {
		return storeError(c, err, "Task not found", "loading task")
	}
	return respond(c, fiber.StatusOK, "Task retrieved", task)
}

// UpdateTask applies only the whitelisted fields present in the body.
func UpdateTask(c *fiber.Ctx) error {
	var update models.TaskUpdate
	if err := c.BodyParser(&update); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(update); err != nil {
		return validationError(c, err)
	}

	owner := middleware.BoardOwner(c)
	task, err := config.Store.UpdateTask(c.UserContext(), owner, c.Params("id"), update)
	if err != nil {
		return storeError(c, err, "Task not found", "updating task")
	}

	if !update.Empty() {
		logger.AuditLogger.Info("Task updated", zap.String("task_id", task.ID), zap.String("board_owner", owner))
		config.Hub.Publish(c.UserContext(), owner, EventTaskUpdated, task)
	}
	return respond(c, fiber.StatusOK, "Task updated successfully", task)
}

func DeleteTask(c *fiber.Ctx) error {
	owner := middleware.BoardOwner(c)
	id := c.Params("id")
	if err := config.Store.DeleteTask(c.UserContext(), owner, id); err != nil {
		return storeError(c, err, "Task not found", "deleting task")
	}

	logger.AuditLogger.Info("Task deleted", zap.String("task_id", id), zap.String("board_owner", owner))
	config.Hub.Publish(c.UserContext(), owner, EventTaskDeleted, fiber.Map{"id": id})
	return respond(c, fiber.StatusOK, "Task deleted successfully", nil)
}
