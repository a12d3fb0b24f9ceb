package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infinyhq/infiny_backend/handlers"
)

func JobRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	jobs := api.Group("/jobs")
	jobs.Get("/main", handlers.ListMainCategories)
	jobs.Get("/sub", handlers.ListSubCategories)
	jobs.Get("", handlers.ListJobs)
}
