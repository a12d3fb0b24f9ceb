package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	config "github.com/infinyhq/infiny_backend/configs"
	"github.com/infinyhq/infiny_backend/database"
	"github.com/infinyhq/infiny_backend/middleware"
	"github.com/infinyhq/infiny_backend/models"
	"github.com/infinyhq/infiny_backend/payments"
)

type CreateCheckoutSessionRequest struct {
	PlanType   string `json:"plan_type" validate:"required,oneof=ESSENTIAL PREMIUM"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

func CreateCheckoutSession(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CreateCheckoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var existing models.Subscription
	err = database.DB.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User already has an active subscription"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check subscription"})
	}

	var price models.Price
	err = database.DB.Where("plan_type = ? AND pricing_type = ?", req.PlanType, "RECURRING").First(&price).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No price found for plan " + req.PlanType})
	}

	session, err := payments.CreateCheckoutSession(&user, &price, req.PlanType, req.SuccessURL, req.CancelURL)
	if err != nil {
		log.Printf("Failed to create checkout session for user %s: %v", userID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}

	return c.JSON(fiber.Map{
		"session_id":   session.ID,
		"checkout_url": session.URL,
	})
}

func GetMySubscription(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var subscription models.Subscription
	if err := database.DB.First(&subscription, "user_id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No subscription found"})
	}
	return c.JSON(subscription)
}

func CancelMySubscription(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var subscription models.Subscription
	if err := database.DB.First(&subscription, "user_id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No subscription found"})
	}
	if subscription.Status != models.SubscriptionStatusActive && subscription.Status != models.SubscriptionStatusTrialing {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Subscription is not active"})
	}

	sub, err := payments.CancelSubscriptionAtPeriodEnd(subscription.StripeSubscriptionID)
	if err != nil {
		log.Printf("Failed to cancel subscription %s: %v", subscription.StripeSubscriptionID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to cancel subscription"})
	}

	if err := database.DB.Model(&subscription).Update("cancel_at_period_end", sub.CancelAtPeriodEnd).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update subscription"})
	}

	return c.JSON(fiber.Map{
		"message":              "Subscription will be canceled at the end of the current period",
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
	})
}

// StripeWebhook reconciles the local subscription state with Stripe's events.
func StripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	sigHeader := c.Get("Stripe-Signature")
	secret := config.Config("STRIPE_WEBHOOK_SECRET")

	event, err := payments.ConstructEvent(payload, sigHeader, secret, payments.DefaultWebhookTolerance, time.Now())
	if err != nil {
		log.Printf("Stripe webhook rejected: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid webhook"})
	}

	switch event.Type {
	case "checkout.session.completed":
		var session struct {
			ID                string `json:"id"`
			ClientReferenceID string `json:"client_reference_id"`
			Customer          string `json:"customer"`
			Subscription      string `json:"subscription"`
			Metadata          struct {
				PlanType string `json:"planType"`
			} `json:"metadata"`
		}
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event payload"})
		}
		if err := handleCheckoutCompleted(session.ClientReferenceID, session.Customer, session.Subscription, session.Metadata.PlanType); err != nil {
			log.Printf("Failed to handle checkout.session.completed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub payments.StripeSubscription
		if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event payload"})
		}
		status := payments.MapSubscriptionStatus(sub.Status)
		if event.Type == "customer.subscription.deleted" {
			status = models.SubscriptionStatusCanceled
		}
		if err := reconcileSubscription(&sub, status); err != nil {
			log.Printf("Failed to reconcile subscription %s: %v", sub.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
		}

	default:
		log.Printf("Ignoring Stripe event type %s", event.Type)
	}

	return c.JSON(fiber.Map{"received": true})
}

func handleCheckoutCompleted(clientReferenceID, customerID, subscriptionID, planType string) error {
	userID, err := uuid.Parse(clientReferenceID)
	if err != nil {
		return err
	}

	sub, err := payments.GetSubscription(subscriptionID)
	if err != nil {
		return err
	}

	if customerID != "" {
		if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
			Update("stripe_customer_id", customerID).Error; err != nil {
			return err
		}
	}

	subscription := models.Subscription{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		PlanType:             planType,
		Status:               payments.MapSubscriptionStatus(sub.Status),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	// A missing current_period_end must stay nil, not become the Unix epoch.
	if sub.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
		subscription.CurrentPeriodEnd = &periodEnd
	}

	var existing models.Subscription
	err = database.DB.Where("user_id = ?", userID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.DB.Create(&subscription).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"stripe_subscription_id": sub.ID,
		"plan_type":              planType,
		"status":                 payments.MapSubscriptionStatus(sub.Status),
		"cancel_at_period_end":   sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodEnd > 0 {
		updates["current_period_end"] = time.Unix(sub.CurrentPeriodEnd, 0)
	}
	return database.DB.Model(&existing).Updates(updates).Error
}

func reconcileSubscription(sub *payments.StripeSubscription, status string) error {
	var existing models.Subscription
	if err := database.DB.Where("stripe_subscription_id = ?", sub.ID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("No local subscription for Stripe subscription %s, skipping", sub.ID)
			return nil
		}
		return err
	}

	updates := map[string]interface{}{
		"status":               status,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodEnd > 0 {
		updates["current_period_end"] = time.Unix(sub.CurrentPeriodEnd, 0)
	}
	return database.DB.Model(&existing).Updates(updates).Error
}
