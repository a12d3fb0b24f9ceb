package handlers_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/infinyhq/infiny_backend/database"
	"github.com/infinyhq/infiny_backend/models"
	"github.com/infinyhq/infiny_backend/routes"
)

func signWebhookPayload(secret string, payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func bootstrapBilling(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "testsecret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	orig := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = orig })

	app := fiber.New()
	routes.BillingRoutes(app)
	return app, db
}

func postWebhook(t *testing.T, app *fiber.App, payload []byte) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, "/api/v1/billing/webhook", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signWebhookPayload("whsec_test", payload, time.Now().Unix()))

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestStripeWebhookSubscriptionUpdated(t *testing.T) {
	app, db := bootstrapBilling(t)

	periodEnd := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sub := models.Subscription{
		UserID:               uuid.New(),
		StripeSubscriptionID: "sub_123",
		PlanType:             models.PlanTypeEssential,
		Status:               models.SubscriptionStatusActive,
		CurrentPeriodEnd:     &periodEnd,
	}
	require.NoError(t, db.Create(&sub).Error)

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_123","status":"past_due","cancel_at_period_end":true}}}`)
	resp := postWebhook(t, app, payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Subscription
	require.NoError(t, db.First(&updated, "stripe_subscription_id = ?", "sub_123").Error)
	assert.Equal(t, models.SubscriptionStatusPastDue, updated.Status)
	assert.True(t, updated.CancelAtPeriodEnd)

	// A payload without current_period_end must not reset the stored date to
	// the Unix epoch.
	require.NotNil(t, updated.CurrentPeriodEnd)
	assert.Equal(t, periodEnd.Unix(), updated.CurrentPeriodEnd.Unix())
}

func TestStripeWebhookSubscriptionDeleted(t *testing.T) {
	app, db := bootstrapBilling(t)

	sub := models.Subscription{
		UserID:               uuid.New(),
		StripeSubscriptionID: "sub_456",
		PlanType:             models.PlanTypePremium,
		Status:               models.SubscriptionStatusActive,
	}
	require.NoError(t, db.Create(&sub).Error)

	payload := []byte(`{"id":"evt_2","type":"customer.subscription.deleted","data":{"object":{"id":"sub_456","status":"canceled"}}}`)
	resp := postWebhook(t, app, payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Subscription
	require.NoError(t, db.First(&updated, "stripe_subscription_id = ?", "sub_456").Error)
	assert.Equal(t, models.SubscriptionStatusCanceled, updated.Status)
	assert.Nil(t, updated.CurrentPeriodEnd)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	app, _ := bootstrapBilling(t)

	payload := []byte(`{"id":"evt_3","type":"customer.subscription.updated","data":{"object":{"id":"sub_123","status":"active"}}}`)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/billing/webhook", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Stripe-Signature", signWebhookPayload("whsec_wrong", payload, time.Now().Unix()))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
