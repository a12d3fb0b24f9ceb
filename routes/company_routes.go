package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infinyhq/infiny_backend/handlers"
	"github.com/infinyhq/infiny_backend/middleware"
)

func CompanyRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	company := api.Group("/company", middleware.Protected())
	company.Post("", handlers.CreateCompany)
	company.Get("/search", handlers.SearchCompanies)
	company.Patch("/:id", handlers.UpdateCompany)
}
