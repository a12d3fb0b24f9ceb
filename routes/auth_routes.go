package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infinyhq/infiny_backend/handlers"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.RegisterUser)
	auth.Post("/login", handlers.LoginUser)
	auth.Get("/verify", handlers.VerifyEmail)
	auth.Post("/forgot-password", handlers.ForgotPassword)
	auth.Post("/reset-password", handlers.ResetPassword)

	auth.Get("/google", handlers.GoogleRedirect)
	auth.Get("/google/callback", handlers.GoogleCallback)
	auth.Get("/linkedin", handlers.LinkedinRedirect)
	auth.Get("/linkedin/callback", handlers.LinkedinCallback)
	auth.Post("/supabase", handlers.SupabaseLogin)
}
