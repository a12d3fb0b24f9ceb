package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infinyhq/infiny_backend/handlers"
	"github.com/infinyhq/infiny_backend/middleware"
)

func UserRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	users := api.Group("/users", middleware.Protected())
	users.Get("/me", handlers.GetMe)
	users.Get("/search", handlers.SearchUsers)

	profiles := api.Group("/profiles", middleware.Protected())
	profiles.Get("/me", handlers.GetMyProfile)
	profiles.Put("/me", handlers.UpdateMyProfile)

	uploads := api.Group("/uploads", middleware.Protected())
	uploads.Get("/signature", handlers.GenerateUploadSignature)
}

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:userId/status", handlers.ToggleUserStatus)
	users.Delete("/:userId", handlers.AdminDeleteUser)

	admin.Post("/jobs", handlers.CreateJob)
}
