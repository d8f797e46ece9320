package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/config"
	"taskboard/internal/store"
	"taskboard/pkg/crypto"
	"taskboard/pkg/logger"
)

// Register creates a new user. The email must be unique; a duplicate is a
// 409 whether it is caught by the pre-check or by the constraint.
func Register(c *fiber.Ctx) error {
	type RegisterRequest struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Bad request"})
	}
	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
		})
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error hashing password"})
	}

	user, err := users.Create(req.Name, req.Email, hash)
	if errors.Is(err, store.ErrEmailExists) {
		logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already registered"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error creating user"})
	}

	logger.AuditLogger.Info("User registered successfully", zap.Int("user_id", user.ID))
	return c.Status(fiber.StatusCreated).JSON(user)
}

func GetAllUsers(c *fiber.Ctx) error {
	list, err := users.List()
	if err != nil {
		logger.ErrorLogger.Error("Error fetching users", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching users"})
	}
	return c.JSON(list)
}

func GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	user, err := users.GetByID(id)
	if errors.Is(err, store.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching user"})
	}
	return c.JSON(user)
}

// UpdateUser applies a partial update. A supplied password is re-hashed
// before it is persisted; other fields pass through verbatim.
func UpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	type UpdateUserRequest struct {
		Name     *string `json:"name" validate:"omitempty,min=1"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Password *string `json:"password" validate:"omitempty,min=6"`
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update user", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Bad request"})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
		})
	}

	upd := store.UserUpdate{Name: req.Name, Email: req.Email}
	if req.Password != nil {
		hash, err := crypto.HashPassword(*req.Password)
		if err != nil {
			logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error hashing password"})
		}
		upd.Password = &hash
	}

	user, err := users.Update(id, upd)
	if errors.Is(err, store.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if errors.Is(err, store.ErrEmailExists) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already registered"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error updating user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error updating user"})
	}

	logger.AuditLogger.Info("User updated successfully", zap.Int("user_id", id))
	return c.JSON(user)
}

func DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	err = users.Delete(id)
	if errors.Is(err, store.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error deleting user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error deleting user"})
	}

	logger.AuditLogger.Info("User deleted successfully", zap.Int("user_id", id))
	return c.JSON(fiber.Map{"message": "User removed successfully"})
}
