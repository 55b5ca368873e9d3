package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"bugboard/internal/config"
	"bugboard/internal/middleware"
	"bugboard/internal/models"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxLogoSize = 2 << 20

var logoExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

func validateLogo(file *multipart.FileHeader) error {
	if file.Size > maxLogoSize {
		return fiber.NewError(fiber.StatusBadRequest, "File size exceeds the limit of 2MB")
	}
	if !logoExts[strings.ToLower(filepath.Ext(file.Filename))] {
		return fiber.NewError(fiber.StatusBadRequest, "File type not allowed")
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return fiber.NewError(fiber.StatusBadRequest, "File must be an image")
	}
	return nil
}

// UploadCompanyLogo stores an image and points the caller's
// company_logo_url at it.
func UploadCompanyLogo(c *fiber.Ctx) error {
	uploadDir := config.Cfg.UploadDir
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		logger.ErrorLogger.Error("Error creating upload directory", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error creating upload directory")
	}

	file, err := c.FormFile("logo")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Error uploading file")
	}
	if err := validateLogo(file); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := c.SaveFile(file, filepath.Join(uploadDir, filename)); err != nil {
		logger.ErrorLogger.Error("Error saving file", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error saving file")
	}

	url := fmt.Sprintf("/api/v1/uploads/%s", filename)
	id := middleware.CurrentIdentity(c)
	profile, err := config.Store.UpsertProfile(c.UserContext(), id.UserID, id.Email, models.ProfileUpdate{CompanyLogoURL: &url})
	if err != nil {
		return storeError(c, err, "Profile not found", "updating company logo")
	}

	logger.AuditLogger.Info("Company logo uploaded", zap.String("user_id", id.UserID), zap.String("filename", filename))
	return respond(c, fiber.StatusOK, "Company logo uploaded successfully", profile)
}

// GetUpload serves a stored file. Only the base name of the parameter is
// used so requests cannot leave the upload directory.
func GetUpload(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("filename"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return respondError(c, fiber.StatusNotFound, "File not found")
	}
	path := filepath.Join(config.Cfg.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		return respondError(c, fiber.StatusNotFound, "File not found")
	}
	return c.SendFile(path)
}
