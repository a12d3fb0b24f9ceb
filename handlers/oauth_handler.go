package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	config "github.com/infinyhq/infiny_backend/configs"
	"github.com/infinyhq/infiny_backend/database"
	"github.com/infinyhq/infiny_backend/models"
)

type oauthUserInfo struct {
	Email     string
	FirstName string
	LastName  string
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// GoogleRedirect sends the browser to Google's consent screen.
func GoogleRedirect(c *fiber.Ctx) error {
	params := url.Values{}
	params.Set("client_id", config.Config("GOOGLE_CLIENT_ID"))
	params.Set("redirect_uri", config.Config("GOOGLE_CALLBACK_URL"))
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")

	return c.Redirect("https://accounts.google.com/o/oauth2/v2/auth?" + params.Encode())
}

func GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing authorization code"})
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", config.Config("GOOGLE_CLIENT_ID"))
	form.Set("client_secret", config.Config("GOOGLE_CLIENT_SECRET"))
	form.Set("redirect_uri", config.Config("GOOGLE_CALLBACK_URL"))
	form.Set("grant_type", "authorization_code")

	accessToken, err := exchangeCode("https://oauth2.googleapis.com/token", form)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Google authentication failed"})
	}

	info, err := fetchGoogleUserInfo(accessToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Failed to fetch Google profile"})
	}

	return issueProviderLogin(c, info, "google")
}

// LinkedinRedirect sends the browser to LinkedIn's consent screen.
func LinkedinRedirect(c *fiber.Ctx) error {
	params := url.Values{}
	params.Set("client_id", config.Config("LINKEDIN_CLIENT_ID"))
	params.Set("redirect_uri", config.Config("LINKEDIN_CALLBACK_URL"))
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")

	return c.Redirect("https://www.linkedin.com/oauth/v2/authorization?" + params.Encode())
}

func LinkedinCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing authorization code"})
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", config.Config("LINKEDIN_CLIENT_ID"))
	form.Set("client_secret", config.Config("LINKEDIN_CLIENT_SECRET"))
	form.Set("redirect_uri", config.Config("LINKEDIN_CALLBACK_URL"))
	form.Set("grant_type", "authorization_code")

	accessToken, err := exchangeCode("https://www.linkedin.com/oauth/v2/accessToken", form)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "LinkedIn authentication failed"})
	}

	info, err := fetchOIDCUserInfo("https://api.linkedin.com/v2/userinfo", accessToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Failed to fetch LinkedIn profile"})
	}

	return issueProviderLogin(c, info, "linkedin")
}

// SupabaseLogin verifies a Supabase access token against the Supabase auth
// endpoint and maps it onto a local account.
func SupabaseLogin(c *fiber.Ctx) error {
	type Request struct {
		AccessToken string `json:"access_token" validate:"required"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	supabaseURL := strings.TrimRight(config.Config("SUPABASE_URL"), "/")
	httpReq, err := http.NewRequest("GET", supabaseURL+"/auth/v1/user", nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create request"})
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.AccessToken)
	httpReq.Header.Set("apikey", config.Config("SUPABASE_ANON_KEY"))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Supabase authentication failed"})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Supabase authentication failed"})
	}

	var supabaseUser struct {
		Email        string `json:"email"`
		UserMetadata struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"user_metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&supabaseUser); err != nil || supabaseUser.Email == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Supabase authentication failed"})
	}

	info := oauthUserInfo{
		Email:     supabaseUser.Email,
		FirstName: supabaseUser.UserMetadata.FirstName,
		LastName:  supabaseUser.UserMetadata.LastName,
	}
	return issueProviderLogin(c, info, "supabase")
}

func exchangeCode(tokenURL string, form url.Values) (string, error) {
	req, err := http.NewRequest("POST", tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to exchange code, status: %s", resp.Status)
	}

	var tokenResp googleTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}
	return tokenResp.AccessToken, nil
}

func fetchGoogleUserInfo(accessToken string) (oauthUserInfo, error) {
	return fetchOIDCUserInfo("https://www.googleapis.com/oauth2/v3/userinfo", accessToken)
}

func fetchOIDCUserInfo(userinfoURL, accessToken string) (oauthUserInfo, error) {
	req, err := http.NewRequest("GET", userinfoURL, nil)
	if err != nil {
		return oauthUserInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return oauthUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("userinfo request failed, status: %s", resp.Status)
	}

	var claims struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return oauthUserInfo{}, err
	}
	if claims.Email == "" {
		return oauthUserInfo{}, fmt.Errorf("provider returned no email")
	}

	return oauthUserInfo{Email: claims.Email, FirstName: claims.GivenName, LastName: claims.FamilyName}, nil
}

// issueProviderLogin gets-or-creates the local account for a provider identity
// and returns a session JWT. Provider accounts are verified by construction.
func issueProviderLogin(c *fiber.Ctx, info oauthUserInfo, provider string) error {
	var user models.User
	err := database.DB.Where("email = ?", info.Email).First(&user).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up user"})
		}

		user = models.User{
			Email:      info.Email,
			Type:       models.UserTypeUser,
			Provider:   provider,
			IsActive:   true,
			IsVerified: true,
			Profile: &models.Profile{
				FirstName: info.FirstName,
				LastName:  info.LastName,
			},
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
		}
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is deactivated"})
	}

	t, err := signJWT(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}

	return c.JSON(fiber.Map{
		"access_token": t,
		"user": AuthUserResponse{
			ID:         user.ID.String(),
			Email:      user.Email,
			Type:       user.Type,
			IsActive:   user.IsActive,
			IsVerified: user.IsVerified,
		},
	})
}
