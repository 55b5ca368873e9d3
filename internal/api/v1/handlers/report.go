package handlers

import (
	"errors"
	"strings"

	"bugboard/internal/config"
	"bugboard/internal/middleware"
	"bugboard/internal/models"
	"bugboard/internal/repository"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type createReportRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description"`
	Type         string `json:"type" validate:"required,oneof=bug feature improvement task"`
	Priority     string `json:"priority" validate:"required,oneof=critical high medium low"`
	ReporterName string `json:"reporter_name"`
}

// reporterName falls back to the local part of the caller's email.
func reporterName(given, email string) string {
	if name := strings.TrimSpace(given); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return local
	}
	return "Anonymous"
}

// ListReports returns the caller's reports that have not been promoted.
func ListReports(c *fiber.Ctx) error {
	reports, err := config.Store.ListActiveReports(c.UserContext(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		return storeError(c, err, "Reports not found", "listing reports")
	}
	return respond(c, fiber.StatusOK, "Reports retrieved", reports)
}

func CreateReport(c *fiber.Ctx) error {
	var req createReportRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := config.Validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	id := middleware.CurrentIdentity(c)
	report, err := config.Store.CreateReport(c.UserContext(), &models.Report{
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Priority:      req.Priority,
		ReporterName:  reporterName(req.ReporterName, id.Email),
		ReporterEmail: id.Email,
		Status:        models.ReportOpen,
		UserID:        id.UserID,
	})
	if err != nil {
		return storeError(c, err, "Report not found", "creating report")
	}

	logger.AuditLogger.Info("Report created", zap.String("report_id", report.ID), zap.String("user_id", id.UserID))
	return respond(c, fiber.StatusCreated, "Report created successfully", report)
}

func UpdateReport(c *fiber.Ctx) error {
	var update models.ReportUpdate
	if err := c.BodyParser(&update); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(update); err != nil {
		return validationError(c, err)
	}

	report, err := config.Store.UpdateReport(c.UserContext(), middleware.CurrentIdentity(c).UserID, c.Params("id"), update)
	if err != nil {
		return storeError(c, err, "Report not found", "updating report")
	}
	return respond(c, fiber.StatusOK, "Report updated successfully", report)
}

func DeleteReport(c *fiber.Ctx) error {
	if err := config.Store.DeleteReport(c.UserContext(), middleware.CurrentIdentity(c).UserID, c.Params("id")); err != nil {
		return storeError(c, err, "Report not found", "deleting report")
	}
	return respond(c, fiber.StatusOK, "Report deleted successfully", nil)
}

// PromoteReport turns a report into a backlog task on the caller's board.
func PromoteReport(c *fiber.Ctx) error {
	id := middleware.CurrentIdentity(c)
	owner := middleware.BoardOwner(c)
	reportID := c.Params("id")

	task, err := config.Store.PromoteReport(c.UserContext(), id.UserID, reportID, owner)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyPromoted) {
			return respondError(c, fiber.StatusBadRequest, "Report already promoted")
		}
		return storeError(c, err, "Report not found", "promoting report")
	}

	logger.AuditLogger.Info("Report promoted",
		zap.String("report_id", reportID),
		zap.String("task_id", task.ID),
		zap.String("task_key", task.TaskKey),
		zap.String("board_owner", owner),
	)
	config.Hub.Publish(c.UserContext(), owner, EventTaskCreated, task)
	return respond(c, fiber.StatusCreated, "Report promoted successfully", fiber.Map{
		"task":      task,
		"report_id": reportID,
	})
}
