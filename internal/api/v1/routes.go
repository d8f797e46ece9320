package v1

import (
	"github.com/gofiber/fiber/v2"

	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/middleware"
)

func RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Public
	api.Post("/users/register", handlers.Register)
	api.Post("/auth/login", handlers.Login)

	// User
	userRoutes := api.Group("/users", middleware.UseToken)
	userRoutes.Get("/", handlers.GetAllUsers)
	userRoutes.Get("/:id", handlers.GetUser)
	userRoutes.Put("/:id", handlers.UpdateUser)
	userRoutes.Delete("/:id", handlers.DeleteUser)

	// Task. The fixed paths are registered before /:id so they match first.
	taskRoutes := api.Group("/tasks", middleware.UseToken)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/due-soon", handlers.DueSoonTasks)
	taskRoutes.Get("/stats/status", handlers.TaskStatsByStatus)
	taskRoutes.Get("/stats/user", handlers.TaskStatsByUser)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Delete("/:id", handlers.DeleteTask)
}
