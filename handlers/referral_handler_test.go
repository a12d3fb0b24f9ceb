package handlers_test

import (
	"fmt"
	"io"
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
	"github.com/infinyhq/infiny_backend/handlers"
	"github.com/infinyhq/infiny_backend/models"
	"github.com/infinyhq/infiny_backend/routes"
	"github.com/infinyhq/infiny_backend/services"
)

func bootstrapApp(t *testing.T) (*fiber.App, *services.ReferralService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	svc := services.NewReferralService(db, nil, "http://localhost:3000")
	handlers.InitReferralHandlers(svc)

	app := fiber.New()
	routes.PublicReferralRoutes(app)

	return app, svc, db
}

func seedReferral(t *testing.T, svc *services.ReferralService, db *gorm.DB) *models.Referral {
	t.Helper()

	requester := models.User{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Type:  models.UserTypeUser,
		Profile: &models.Profile{
			ID:        uuid.New(),
			FirstName: "Alice",
			LastName:  "Martin",
		},
	}
	require.NoError(t, db.Create(&requester).Error)

	referrer := models.User{
		ID:    uuid.New(),
		Email: "bob@example.com",
		Type:  models.UserTypeUser,
		Profile: &models.Profile{
			ID:        uuid.New(),
			FirstName: "Bob",
			LastName:  "Durand",
		},
	}
	require.NoError(t, db.Create(&referrer).Error)

	referral, _, err := svc.Create(requester.ID, referrer.ID, "On se connaît", models.RelationTypeProfessional)
	require.NoError(t, err)
	return referral
}

func TestAcceptReferralByGet(t *testing.T) {
	app, svc, db := bootstrapApp(t)
	referral := seedReferral(t, svc, db)

	target := fmt.Sprintf("/public/referrals/accept?referralId=%s&token=%s", referral.ID, *referral.ResponseToken)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Referral
	require.NoError(t, db.First(&updated, "id = ?", referral.ID).Error)
	assert.Equal(t, models.ReferralStatusAccepted, updated.Status)
}

func TestAcceptReferralByGetMissingParams(t *testing.T) {
	app, _, _ := bootstrapApp(t)

	req, err := http.NewRequest(http.MethodGet, "/public/referrals/accept", nil)
	require.NoError(t, err)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAcceptReferralByGetWrongToken(t *testing.T) {
	app, svc, db := bootstrapApp(t)
	referral := seedReferral(t, svc, db)

	target := fmt.Sprintf("/public/referrals/accept?referralId=%s&token=deadbeef", referral.ID)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "invalid token")

	var unchanged models.Referral
	require.NoError(t, db.First(&unchanged, "id = ?", referral.ID).Error)
	assert.Equal(t, models.ReferralStatusPending, unchanged.Status)
}

func TestAcceptReferralByGetExpiredLink(t *testing.T) {
	app, svc, db := bootstrapApp(t)
	referral := seedReferral(t, svc, db)

	svc.Now = func() time.Time { return referral.TokenExpiry.Add(time.Second) }

	target := fmt.Sprintf("/public/referrals/accept?referralId=%s&token=%s", referral.ID, *referral.ResponseToken)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "expired")
}
