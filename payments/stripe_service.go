package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/infinyhq/infiny_backend/configs"
	"github.com/infinyhq/infiny_backend/models"
)

const stripeAPIBase = "https://api.stripe.com"

// DefaultWebhookTolerance bounds how old a webhook signature timestamp may be.
const DefaultWebhookTolerance = 5 * time.Minute

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type StripeSubscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Customer          string `json:"customer"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Metadata          struct {
		UserID   string `json:"userId"`
		PlanType string `json:"planType"`
	} `json:"metadata"`
}

type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func stripePost(path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequest("POST", stripeAPIBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+config.Config("STRIPE_SECRET_KEY"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe request failed: %s", string(body))
	}
	return body, nil
}

func stripeGet(path string) ([]byte, error) {
	req, err := http.NewRequest("GET", stripeAPIBase+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+config.Config("STRIPE_SECRET_KEY"))

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe request failed: %s", string(body))
	}
	return body, nil
}

// CreateCheckoutSession opens a subscription-mode checkout for the given plan
// price.
func CreateCheckoutSession(user *models.User, price *models.Price, planType, successURL, cancelURL string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", price.StripePriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", user.ID.String())
	form.Set("customer_email", user.Email)
	form.Set("allow_promotion_codes", "true")
	form.Set("billing_address_collection", "required")
	form.Set("metadata[userId]", user.ID.String())
	form.Set("metadata[planType]", planType)

	body, err := stripePost("/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func GetSubscription(subscriptionID string) (*StripeSubscription, error) {
	body, err := stripeGet("/v1/subscriptions/" + subscriptionID)
	if err != nil {
		return nil, err
	}

	var sub StripeSubscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscriptionAtPeriodEnd keeps the subscription alive until the end of
// the paid period instead of cutting access immediately.
func CancelSubscriptionAtPeriodEnd(subscriptionID string) (*StripeSubscription, error) {
	form := url.Values{}
	form.Set("cancel_at_period_end", "true")

	body, err := stripePost("/v1/subscriptions/"+subscriptionID, form)
	if err != nil {
		return nil, err
	}

	var sub StripeSubscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ConstructEvent verifies the Stripe-Signature header (t=...,v1=... scheme)
// against the raw payload and returns the parsed event. The signed payload is
// "{t}.{body}" under HMAC-SHA256 with the webhook secret.
func ConstructEvent(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) (*StripeEvent, error) {
	if sigHeader == "" {
		return nil, fmt.Errorf("missing Stripe-Signature header")
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid signature timestamp")
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return nil, fmt.Errorf("malformed Stripe-Signature header")
	}

	if now.Sub(time.Unix(timestamp, 0)) > tolerance {
		return nil, fmt.Errorf("webhook timestamp outside of tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	valid := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("webhook signature verification failed")
	}

	var event StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %v", err)
	}
	return &event, nil
}

// MapSubscriptionStatus translates Stripe subscription statuses onto the local
// subscription states.
func MapSubscriptionStatus(stripeStatus string) string {
	switch stripeStatus {
	case "active":
		return models.SubscriptionStatusActive
	case "trialing":
		return models.SubscriptionStatusTrialing
	case "past_due", "unpaid":
		return models.SubscriptionStatusPastDue
	case "canceled":
		return models.SubscriptionStatusCanceled
	default:
		return models.SubscriptionStatusIncomplete
	}
}
