package payments_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinyhq/infiny_backend/models"
	"github.com/infinyhq/infiny_backend/payments"
)

const webhookSecret = "whsec_test_secret"

func signPayload(payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestConstructEvent(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","status":"active"}}}`)

	t.Run("valid signature", func(t *testing.T) {
		header := signPayload(payload, now.Unix())

		event, err := payments.ConstructEvent(payload, header, webhookSecret, payments.DefaultWebhookTolerance, now)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, "customer.subscription.updated", event.Type)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := payments.ConstructEvent(payload, "", webhookSecret, payments.DefaultWebhookTolerance, now)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := signPayload(payload, now.Unix())

		_, err := payments.ConstructEvent(payload, header, "whsec_other", payments.DefaultWebhookTolerance, now)
		assert.Error(t, err)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signPayload(payload, now.Unix())
		tampered := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{}}}`)

		_, err := payments.ConstructEvent(tampered, header, webhookSecret, payments.DefaultWebhookTolerance, now)
		assert.Error(t, err)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		stale := now.Add(-10 * time.Minute)
		header := signPayload(payload, stale.Unix())

		_, err := payments.ConstructEvent(payload, header, webhookSecret, payments.DefaultWebhookTolerance, now)
		assert.Error(t, err)
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := payments.ConstructEvent(payload, "v1=abc", webhookSecret, payments.DefaultWebhookTolerance, now)
		assert.Error(t, err)
	})
}

func TestMapSubscriptionStatus(t *testing.T) {
	cases := map[string]string{
		"active":             models.SubscriptionStatusActive,
		"trialing":           models.SubscriptionStatusTrialing,
		"past_due":           models.SubscriptionStatusPastDue,
		"unpaid":             models.SubscriptionStatusPastDue,
		"canceled":           models.SubscriptionStatusCanceled,
		"incomplete":         models.SubscriptionStatusIncomplete,
		"incomplete_expired": models.SubscriptionStatusIncomplete,
	}

	for stripeStatus, expected := range cases {
		assert.Equal(t, expected, payments.MapSubscriptionStatus(stripeStatus), "stripe status %q", stripeStatus)
	}
}
