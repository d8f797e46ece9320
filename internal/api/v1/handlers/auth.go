package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/store"
	"taskboard/pkg/crypto"
	"taskboard/pkg/logger"
)

// Login validates credentials and issues a bearer token. An unknown email is
// a 404, a wrong password a 401; the distinction is part of the contract.
func Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Bad request"})
	}
	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
		})
	}

	user, err := users.GetByEmail(req.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		logger.SecurityLogger.Warn("Login with unknown email", zap.String("email", req.Email))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Email not found"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error fetching user for login", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching user"})
	}

	if err := crypto.CheckPassword(user.Password, req.Password); err != nil {
		logger.SecurityLogger.Warn("Login with invalid password", zap.Int("user_id", user.ID))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid password"})
	}

	token, err := auth.IssueToken(user.ID, user.Email)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error generating token"})
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"access_token": token,
		"user":         user.Summary(),
	})
}
