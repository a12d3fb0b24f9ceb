package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infinyhq/infiny_backend/handlers"
	"github.com/infinyhq/infiny_backend/middleware"
)

func BillingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	billing := api.Group("/billing", middleware.Protected())
	billing.Post("/checkout-session", handlers.CreateCheckoutSession)
	billing.Get("/subscription", handlers.GetMySubscription)
	billing.Post("/cancel", handlers.CancelMySubscription)

	// Webhook is authenticated by its signature, not a session.
	api.Post("/billing/webhook", handlers.StripeWebhook)
}
