package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	config "github.com/infinyhq/infiny_backend/configs"
	"github.com/infinyhq/infiny_backend/database"
	"github.com/infinyhq/infiny_backend/handlers"
	"github.com/infinyhq/infiny_backend/jobs"
	"github.com/infinyhq/infiny_backend/notifications"
	"github.com/infinyhq/infiny_backend/routes"
	"github.com/infinyhq/infiny_backend/services"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()

	appURL := config.ConfigOr("APP_URL", "http://localhost:3000")

	referralService := services.NewReferralService(database.DB, notifications.EmailClient, appURL)
	handlers.InitReferralHandlers(referralService)
	jobs.InitReferralJobs(referralService)

	sweepSchedule := config.ConfigOr("REFERRAL_SWEEP_CRON", "@every 10s")

	c := cron.New()
	if _, err := c.AddFunc(sweepSchedule, jobs.ProcessExpiredReferrals); err != nil {
		log.Fatalf("🔥 Failed to schedule referral expiry sweep: %v", err)
	}
	go c.Start()
	log.Println("✅ Referral expiry sweep scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "INFINY API",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.AuthRoutes(app)
	routes.UserRoutes(app)
	routes.AdminRoutes(app)
	routes.ReferralRoutes(app)
	routes.PublicReferralRoutes(app)
	routes.JobRoutes(app)
	routes.CompanyRoutes(app)
	routes.StudyLevelRoutes(app)
	routes.BillingRoutes(app)

	port := config.ConfigOr("PORT", "8080")

	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
