package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/infinyhq/infiny_backend/middleware"
	"github.com/infinyhq/infiny_backend/services"
)

var Referrals *services.ReferralService

func InitReferralHandlers(s *services.ReferralService) {
	Referrals = s
}

type CreateReferralRequest struct {
	ReferrerID   string `json:"referrer_id" validate:"required,uuid"`
	Message      string `json:"message" validate:"max=500"`
	RelationType string `json:"relation_type" validate:"required,oneof=PROFESSIONAL PERSONAL"`
}

type CreateReferralWithMailRequest struct {
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Message      string `json:"message" validate:"required,max=500"`
	RelationType string `json:"relation_type" validate:"required,oneof=PROFESSIONAL PERSONAL"`
}

type UpdateReferralRequest struct {
	Status          string `json:"status" validate:"required,oneof=ACCEPTED REJECTED"`
	ResponseMessage string `json:"response_message" validate:"max=500"`
}

func referralErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrReferralNotFound),
		errors.Is(err, services.ErrReferrerNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrDuplicateReferral),
		errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrNotReferrer),
		errors.Is(err, services.ErrNotRequester):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrTokenInvalid),
		errors.Is(err, services.ErrTokenExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrNotPending),
		errors.Is(err, services.ErrInvalidStatus):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func referralError(c *fiber.Ctx, err error) error {
	status := referralErrorStatus(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func CreateReferral(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CreateReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	referrerID, err := uuid.Parse(req.ReferrerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid referrer id"})
	}

	referral, link, err := Referrals.Create(userID, referrerID, req.Message, req.RelationType)
	if err != nil {
		return referralError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"referral":        referral,
		"invitation_link": link,
	})
}

func CreateReferralWithMail(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CreateReferralWithMailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	referral, err := Referrals.CreateWithMail(userID, req.Email, req.FirstName, req.LastName, req.Message, req.RelationType)
	if err != nil {
		return referralError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(referral)
}

func ListReferrals(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	referrals, err := Referrals.ListFor(userID)
	if err != nil {
		return referralError(c, err)
	}
	return c.JSON(referrals)
}

func ListSentReferrals(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	referrals, err := Referrals.ListSent(userID)
	if err != nil {
		return referralError(c, err)
	}
	return c.JSON(referrals)
}

func ListReceivedReferrals(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	referrals, err := Referrals.ListReceived(userID)
	if err != nil {
		return referralError(c, err)
	}
	return c.JSON(referrals)
}

func GetReferralStats(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	stats, err := Referrals.Stats(userID)
	if err != nil {
		return referralError(c, err)
	}
	return c.JSON(stats)
}

func GetReferral(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	referralID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid referral id"})
	}

	referral, err := Referrals.FindOne(referralID, userID)
	if err != nil {
		return referralError(c, err)
	}
	return c.JSON(referral)
}

func UpdateReferral(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	referralID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid referral id"})
	}

	var req UpdateReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	referral, err := Referrals.Respond(referralID, userID, req.Status, req.ResponseMessage)
	if err != nil {
		return referralError(c, err)
	}
	return c.JSON(referral)
}

func DeleteReferral(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	referralID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid referral id"})
	}

	if err := Referrals.Remove(referralID, userID); err != nil {
		return referralError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Referral request deleted"})
}

func GenerateReferralLink(c *fiber.Ctx) error {
	if _, err := middleware.CurrentUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	referralID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid referral id"})
	}

	baseURL := c.Query("baseUrl", "http://localhost:3000")

	link, details, err := Referrals.GenerateInvitationLink(referralID, baseURL)
	if err != nil {
		return referralError(c, err)
	}
	return c.JSON(fiber.Map{
		"link":             link,
		"referral_details": details,
	})
}
