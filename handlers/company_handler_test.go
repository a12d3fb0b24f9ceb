package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/infinyhq/infiny_backend/database"
	"github.com/infinyhq/infiny_backend/models"
	"github.com/infinyhq/infiny_backend/routes"
)

func bootstrapAPI(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "testsecret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	orig := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = orig })

	app := fiber.New()
	routes.CompanyRoutes(app)
	routes.StudyLevelRoutes(app)
	return app, db
}

func bearerToken(t *testing.T, userID uuid.UUID, userType string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"type":    userType,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("testsecret"))
	require.NoError(t, err)
	return token
}

func authedRequest(t *testing.T, method, target, body string, token string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestCreateAndSearchCompanies(t *testing.T) {
	app, db := bootstrapAPI(t)
	userID := uuid.New()
	token := bearerToken(t, userID, models.UserTypeUser)

	body := `{
		"name": "Google France",
		"address": "8 Rue de Londres",
		"postal_code": "75009",
		"city": "Paris",
		"company_type": "GE",
		"sector": "IT",
		"employee_count": 1200,
		"user_position": "Développeur"
	}`
	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/v1/company", body, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Company
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Google France", created.Name)
	assert.Equal(t, userID, created.UserID)

	other := models.Company{
		Name:          "Atelier Lyonnais",
		Address:       "2 Quai de Saône",
		PostalCode:    "69001",
		City:          "Lyon",
		CompanyType:   models.CompanyTypePE,
		Sector:        "CRAFT",
		EmployeeCount: 12,
		UserPosition:  "Gérant",
		UserID:        uuid.New(),
	}
	require.NoError(t, db.Create(&other).Error)

	t.Run("name match is case-insensitive", func(t *testing.T) {
		resp, err := app.Test(authedRequest(t, http.MethodGet, "/api/v1/company/search?query=GOOG", "", token))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Data []models.Company `json:"data"`
			Meta struct {
				Total     int64 `json:"total"`
				Page      int   `json:"page"`
				PageCount int   `json:"page_count"`
			} `json:"meta"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out.Data, 1)
		assert.Equal(t, "Google France", out.Data[0].Name)
		assert.Equal(t, int64(1), out.Meta.Total)
		assert.Equal(t, 1, out.Meta.PageCount)
	})

	t.Run("city matches too", func(t *testing.T) {
		resp, err := app.Test(authedRequest(t, http.MethodGet, "/api/v1/company/search?query=lyon", "", token))
		require.NoError(t, err)

		var out struct {
			Data []models.Company `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out.Data, 1)
		assert.Equal(t, "Atelier Lyonnais", out.Data[0].Name)
	})

	t.Run("empty query lists all, paginated", func(t *testing.T) {
		resp, err := app.Test(authedRequest(t, http.MethodGet, "/api/v1/company/search?page=1&take=1", "", token))
		require.NoError(t, err)

		var out struct {
			Data []models.Company `json:"data"`
			Meta struct {
				Total       int64 `json:"total"`
				PageCount   int   `json:"page_count"`
				HasNextPage bool  `json:"has_next_page"`
			} `json:"meta"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Len(t, out.Data, 1)
		assert.Equal(t, int64(2), out.Meta.Total)
		assert.Equal(t, 2, out.Meta.PageCount)
		assert.True(t, out.Meta.HasNextPage)
	})

	t.Run("unauthenticated search is refused", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "/api/v1/company/search?query=goog", nil)
		require.NoError(t, err)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	})
}

func TestUpdateCompany(t *testing.T) {
	app, db := bootstrapAPI(t)
	token := bearerToken(t, uuid.New(), models.UserTypeUser)

	company := models.Company{
		Name:          "Startup SAS",
		Address:       "1 Rue Neuve",
		PostalCode:    "33000",
		City:          "Bordeaux",
		CompanyType:   models.CompanyTypeTPE,
		Sector:        "IT",
		EmployeeCount: 3,
		UserPosition:  "CTO",
		UserID:        uuid.New(),
	}
	require.NoError(t, db.Create(&company).Error)

	body := `{"employee_count": 8, "company_type": "PE"}`
	resp, err := app.Test(authedRequest(t, http.MethodPatch, "/api/v1/company/"+company.ID.String(), body, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Company
	require.NoError(t, db.First(&updated, "id = ?", company.ID).Error)
	assert.Equal(t, 8, updated.EmployeeCount)
	assert.Equal(t, models.CompanyTypePE, updated.CompanyType)
	assert.Equal(t, "Startup SAS", updated.Name)
}

func TestSetStudyLevel(t *testing.T) {
	app, db := bootstrapAPI(t)

	user := models.User{
		ID:    uuid.New(),
		Email: "nadia@example.com",
		Type:  models.UserTypeUser,
		Profile: &models.Profile{
			ID:        uuid.New(),
			FirstName: "Nadia",
			LastName:  "Benali",
		},
	}
	require.NoError(t, db.Create(&user).Error)
	token := bearerToken(t, user.ID, models.UserTypeUser)

	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/v1/study-levels", `{"study_level":"BAC_PLUS_5"}`, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var level models.StudyLevel
	require.NoError(t, db.First(&level, "profile_id = ?", user.Profile.ID).Error)
	assert.Equal(t, models.StudyLevelBacPlus5, level.Type)

	t.Run("second call replaces the level", func(t *testing.T) {
		resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/v1/study-levels", `{"study_level":"BAC_PLUS_2"}`, token))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var count int64
		require.NoError(t, db.Model(&models.StudyLevel{}).Where("profile_id = ?", user.Profile.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		var replaced models.StudyLevel
		require.NoError(t, db.First(&replaced, "profile_id = ?", user.Profile.ID).Error)
		assert.Equal(t, models.StudyLevelBacPlus2, replaced.Type)
	})

	t.Run("unknown level is refused", func(t *testing.T) {
		resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/v1/study-levels", `{"study_level":"PHD"}`, token))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing profile", func(t *testing.T) {
		orphan := bearerToken(t, uuid.New(), models.UserTypeUser)
		resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/v1/study-levels", `{"study_level":"BAC"}`, orphan))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
