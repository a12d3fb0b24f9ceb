package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infinyhq/infiny_backend/handlers"
	"github.com/infinyhq/infiny_backend/middleware"
)

func StudyLevelRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	levels := api.Group("/study-levels", middleware.Protected())
	levels.Post("", handlers.SetStudyLevel)
}
