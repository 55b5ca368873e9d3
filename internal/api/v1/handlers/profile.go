package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"bugboard/internal/board"
	"bugboard/internal/config"
	"bugboard/internal/middleware"
	"bugboard/internal/models"
	"bugboard/internal/repository"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func GetProfile(c *fiber.Ctx) error {
	profile, err := config.Store.GetProfile(c.UserContext(), middleware.CurrentIdentity(c).UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(fiber.Map{
			"message": "No profile yet",
			"success": true,
			"status":  fiber.StatusOK,
			"data":    nil,
		})
	}
	if err != nil {
		return storeError(c, err, "Profile not found", "loading profile")
	}
	return respond(c, fiber.StatusOK, "Profile retrieved", profile)
}

func decodeString(raw json.RawMessage) string {
	var s *string
	if json.Unmarshal(raw, &s) != nil || s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func decodeBool(raw json.RawMessage) bool {
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

// decodeInviteList accepts any JSON value; non-arrays and non-string
// entries are ignored.
func decodeInviteList(raw json.RawMessage) []string {
	var values []any
	if json.Unmarshal(raw, &values) != nil {
		return []string{}
	}
	emails := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			emails = append(emails, s)
		}
	}
	return board.NormalizeInviteList(emails)
}

// encryptToken returns the stored form of a GitHub token; an empty token
// clears the stored one.
func encryptToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil
	}
	return config.Secrets.EncryptSecret(token)
}

// UpdateProfile upserts only the fields present in the body.
func UpdateProfile(c *fiber.Ctx) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}

	var update models.ProfileUpdate
	str := func(key string) *string {
		raw, ok := body[key]
		if !ok {
			return nil
		}
		s := decodeString(raw)
		return &s
	}
	boolean := func(key string) *bool {
		raw, ok := body[key]
		if !ok {
			return nil
		}
		b := decodeBool(raw)
		return &b
	}
	update.FirstName = str("first_name")
	update.LastName = str("last_name")
	update.Company = str("company")
	update.CompanyLogoURL = str("company_logo_url")
	update.ContactNumber = str("contact_number")
	update.DisclaimerAccepted = boolean("disclaimer_accepted")
	update.PopiaAccepted = boolean("popia_accepted")
	if raw, ok := body["invite_emails"]; ok {
		invites := decodeInviteList(raw)
		update.InviteEmails = &invites
	}
	if raw, ok := body["githubToken"]; ok {
		enc, err := encryptToken(decodeString(raw))
		if err != nil {
			logger.ErrorLogger.Error("Error encrypting github token", zap.Error(err))
			return respondError(c, fiber.StatusInternalServerError, "Error storing github token")
		}
		update.GithubTokenEnc = &enc
	}

	id := middleware.CurrentIdentity(c)
	profile, err := config.Store.UpsertProfile(c.UserContext(), id.UserID, id.Email, update)
	if err != nil {
		return storeError(c, err, "Profile not found", "updating profile")
	}

	logger.AuditLogger.Info("Profile updated", zap.String("user_id", id.UserID))
	return respond(c, fiber.StatusOK, "Profile updated successfully", profile)
}

type bootstrapRequest struct {
	UserID             string   `json:"userId" validate:"required"`
	Email              string   `json:"email" validate:"required,email"`
	FirstName          string   `json:"firstName"`
	LastName           string   `json:"lastName"`
	Company            string   `json:"company"`
	CompanyLogoURL     string   `json:"companyLogoUrl"`
	InviteEmails       []string `json:"inviteEmails"`
	ContactNumber      string   `json:"contactNumber"`
	DisclaimerAccepted bool     `json:"disclaimerAccepted"`
	PopiaAccepted      bool     `json:"popiaAccepted"`
	GithubToken        string   `json:"githubToken"`
}

// BootstrapProfile writes the first profile right after signup, before the
// client holds a session. The user id and email must match a registered user.
func BootstrapProfile(c *fiber.Ctx) error {
	var req bootstrapRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	ctx := c.UserContext()
	user, err := config.Store.GetUserByID(ctx, req.UserID)
	if err != nil {
		return storeError(c, err, "User not found", "loading user")
	}
	if board.NormalizeEmail(user.Email) != board.NormalizeEmail(req.Email) {
		logger.SecurityLogger.Warn("Bootstrap email mismatch", zap.String("user_id", req.UserID))
		return respondError(c, fiber.StatusBadRequest, "Email mismatch")
	}

	enc, err := encryptToken(req.GithubToken)
	if err != nil {
		logger.ErrorLogger.Error("Error encrypting github token", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error storing github token")
	}
	trim := func(s string) *string {
		s = strings.TrimSpace(s)
		return &s
	}
	invites := board.NormalizeInviteList(req.InviteEmails)
	update := models.ProfileUpdate{
		FirstName:          trim(req.FirstName),
		LastName:           trim(req.LastName),
		Company:            trim(req.Company),
		CompanyLogoURL:     trim(req.CompanyLogoURL),
		InviteEmails:       &invites,
		ContactNumber:      trim(req.ContactNumber),
		DisclaimerAccepted: &req.DisclaimerAccepted,
		PopiaAccepted:      &req.PopiaAccepted,
		GithubTokenEnc:     &enc,
	}
	if _, err := config.Store.UpsertProfile(ctx, user.ID, user.Email, update); err != nil {
		return storeError(c, err, "Profile not found", "bootstrapping profile")
	}

	logger.AuditLogger.Info("Profile bootstrapped", zap.String("user_id", user.ID))
	return respond(c, fiber.StatusOK, "Profile created", nil)
}
