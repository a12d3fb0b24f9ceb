package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infinyhq/infiny_backend/handlers"
	"github.com/infinyhq/infiny_backend/middleware"
)

func ReferralRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	referrals := api.Group("/referrals", middleware.Protected())
	referrals.Post("/create", handlers.CreateReferral)
	referrals.Post("/create-with-mail", handlers.CreateReferralWithMail)
	referrals.Get("", handlers.ListReferrals)
	referrals.Get("/sent", handlers.ListSentReferrals)
	referrals.Get("/received", handlers.ListReceivedReferrals)
	referrals.Get("/stats", handlers.GetReferralStats)
	referrals.Get("/:id", handlers.GetReferral)
	referrals.Patch("/:id", handlers.UpdateReferral)
	referrals.Delete("/:id", handlers.DeleteReferral)
	referrals.Get("/:id/invitation-link", handlers.GenerateReferralLink)
}

// PublicReferralRoutes are reachable without a session: the mailed token is
// the credential.
func PublicReferralRoutes(app *fiber.App) {
	public := app.Group("/public/referrals")
	public.Post("/accept", handlers.AcceptReferralViaLink)
	public.Get("/accept", handlers.AcceptReferralByGet)
}
