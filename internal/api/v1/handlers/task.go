package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/config"
	"taskboard/internal/models"
	"taskboard/internal/store"
	"taskboard/pkg/logger"
)

// validStatus reports whether status is one of pending, in_progress,
// completed.
func validStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusInProgress, models.StatusCompleted:
		return true
	default:
		return false
	}
}

// parseDueDate accepts RFC 3339 timestamps and bare dates.
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func CreateTask(c *fiber.Ctx) error {
	type CreateTaskRequest struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description" validate:"required"`
		Status      string `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
		AssigneeID  *int   `json:"assignee_id"`
		DueDate     string `json:"due_date" validate:"required"`
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Bad request"})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
		})
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid due_date"})
	}

	task, err := tasks.Create(store.TaskCreate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
		DueDate:     due,
	})
	if errors.Is(err, store.ErrAssigneeNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Assignee not found"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error creating task"})
	}

	logger.AuditLogger.Info("Task created successfully", zap.Int("task_id", task.ID))
	return c.Status(fiber.StatusCreated).JSON(task)
}

// ListTasks returns one due-date-ordered page of tasks matching the
// optional status, assignee and due-range filters.
func ListTasks(c *fiber.Ctx) error {
	f := store.TaskFilter{
		Status: c.Query("status"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}
	if f.Status != "" && !validStatus(f.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid status"})
	}
	if v := c.Query("assignee_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid assignee_id"})
		}
		f.AssigneeID = &id
	}
	if v := c.Query("due_from"); v != "" {
		t, err := parseDueDate(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid due_from"})
		}
		f.DueFrom = &t
	}
	if v := c.Query("due_to"); v != "" {
		t, err := parseDueDate(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid due_to"})
		}
		f.DueTo = &t
	}

	page, err := tasks.List(f)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching tasks"})
	}
	return c.JSON(page)
}

// DueSoonTasks lists non-completed tasks due within the next 24 hours.
func DueSoonTasks(c *fiber.Ctx) error {
	list, err := tasks.DueSoon(time.Now())
	if err != nil {
		logger.ErrorLogger.Error("Error fetching due-soon tasks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching tasks"})
	}
	return c.JSON(list)
}

func TaskStatsByStatus(c *fiber.Ctx) error {
	stats, err := tasks.StatsByStatus()
	if err != nil {
		logger.ErrorLogger.Error("Error fetching task stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching stats"})
	}
	return c.JSON(stats)
}

func TaskStatsByUser(c *fiber.Ctx) error {
	stats, err := tasks.StatsByUser()
	if err != nil {
		logger.ErrorLogger.Error("Error fetching task stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching stats"})
	}
	return c.JSON(stats)
}

func GetTask(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid task ID"})
	}

	task, err := tasks.GetByID(id)
	if errors.Is(err, store.ErrTaskNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Task not found"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error fetching task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching task"})
	}
	return c.JSON(task)
}

// UpdateTask applies a partial update. An explicit null assignee_id clears
// the assignee; an omitted field leaves it untouched.
func UpdateTask(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid task ID"})
	}

	type UpdateTaskRequest struct {
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		Status      *string            `json:"status"`
		AssigneeID  models.OptionalInt `json:"assignee_id"`
		DueDate     *string            `json:"due_date"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Bad request"})
	}
	if req.Status != nil && !validStatus(*req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid status"})
	}

	upd := store.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid due_date"})
		}
		upd.DueDate = &due
	}

	task, err := tasks.Update(id, upd)
	if errors.Is(err, store.ErrTaskNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Task not found"})
	}
	if errors.Is(err, store.ErrAssigneeNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Assignee not found"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error updating task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error updating task"})
	}

	logger.AuditLogger.Info("Task updated successfully", zap.Int("task_id", id))
	return c.JSON(task)
}

func DeleteTask(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid task ID"})
	}

	err = tasks.Delete(id)
	if errors.Is(err, store.ErrTaskNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Task not found"})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error deleting task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error deleting task"})
	}

	logger.AuditLogger.Info("Task deleted successfully", zap.Int("task_id", id))
	return c.JSON(fiber.Map{"message": "Task removed successfully"})
}
