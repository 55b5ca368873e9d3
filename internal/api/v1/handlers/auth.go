package handlers

import (
	"errors"
	"time"

	"bugboard/internal/auth"
	"bugboard/internal/config"
	"bugboard/internal/models"
	"bugboard/internal/repository"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates a user and its empty profile.
func Register(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error hashing password")
	}

	ctx := c.UserContext()
	user, err := config.Store.CreateUser(ctx, req.Email, string(hashedPassword))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			logger.SecurityLogger.Warn("Duplicate email on register")
			return respondError(c, fiber.StatusConflict, "Email already registered")
		}
		return storeError(c, err, "User not found", "creating user")
	}

	if _, err := config.Store.UpsertProfile(ctx, user.ID, user.Email, models.ProfileUpdate{}); err != nil {
		return storeError(c, err, "Profile not found", "creating profile")
	}

	logger.AuditLogger.Info("User registered", zap.String("user_id", user.ID))
	return respond(c, fiber.StatusCreated, "User created successfully", fiber.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

// Login starts a cookie session and, when a signing secret is configured,
// also returns a bearer token.
func Login(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	ctx := c.UserContext()
	user, err := config.Store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return storeError(c, err, "", "loading user")
		}
		logger.SecurityLogger.Warn("Login for unknown email")
		return respondError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.String("user_id", user.ID))
		return respondError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	sessionToken, hash := auth.NewSessionToken()
	expires := time.Now().Add(config.Cfg.SessionTTL)
	if err := config.Store.CreateSession(ctx, &models.Session{TokenHash: hash, UserID: user.ID, ExpiresAt: expires}); err != nil {
		return storeError(c, err, "", "creating session")
	}
	c.Cookie(&fiber.Cookie{
		Name:     config.Cfg.SessionCookie,
		Value:    sessionToken,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	data := fiber.Map{"user_id": user.ID, "email": user.Email}
	if config.Cfg.JWTSecret != "" {
		token, err := auth.IssueToken(config.Cfg.JWTSecret, config.Cfg.JWTIssuer, config.Cfg.JWTAudience,
			user.ID, user.Email, config.Cfg.TokenTTL)
		if err != nil {
			logger.ErrorLogger.Error("Error generating token", zap.Error(err))
			return respondError(c, fiber.StatusInternalServerError, "Error generating token")
		}
		data["token"] = token
	}

	logger.AuditLogger.Info("Login success", zap.String("user_id", user.ID))
	return respond(c, fiber.StatusOK, "Login success", data)
}

func Logout(c *fiber.Ctx) error {
	if token := c.Cookies(config.Cfg.SessionCookie); token != "" {
		if err := config.Store.DeleteSession(c.UserContext(), auth.HashSessionToken(token)); err != nil {
			logger.ErrorLogger.Error("Error deleting session", zap.Error(err))
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     config.Cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return respond(c, fiber.StatusOK, "Logged out", nil)
}
