package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PublicAcceptRequest struct {
	ReferralID      string `json:"referral_id" validate:"required,uuid"`
	Token           string `json:"token" validate:"required"`
	ResponseMessage string `json:"response_message" validate:"max=500"`
}

// AcceptReferralViaLink handles the POST variant of the public invitation
// link. The token carried by the link is the credential; no session needed.
func AcceptReferralViaLink(c *fiber.Ctx) error {
	var req PublicAcceptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	referralID, err := uuid.Parse(req.ReferralID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid referral id"})
	}

	referral, err := Referrals.AcceptViaToken(referralID, req.Token, req.ResponseMessage)
	if err != nil {
		return referralError(c, err)
	}
	return c.JSON(referral)
}

// AcceptReferralByGet lets the mailed link be opened directly in a browser.
func AcceptReferralByGet(c *fiber.Ctx) error {
	rawID := c.Query("referralId")
	token := c.Query("token")
	if rawID == "" || token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "referralId and token are required"})
	}

	referralID, err := uuid.Parse(rawID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid referral id"})
	}

	referral, err := Referrals.AcceptViaToken(referralID, token, "Demande acceptée automatiquement via lien direct")
	if err != nil {
		return referralError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Referral request accepted",
		"data":    referral,
	})
}
