package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/infinyhq/infiny_backend/database"
	"github.com/infinyhq/infiny_backend/middleware"
	"github.com/infinyhq/infiny_backend/models"
)

type SetStudyLevelRequest struct {
	StudyLevel string `json:"study_level" validate:"required,oneof=CAP BAC BAC_PLUS_2 BAC_PLUS_3 BAC_PLUS_5 BAC_PLUS_8"`
}

// SetStudyLevel records the current user's education level, replacing any
// previous one.
func SetStudyLevel(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req SetStudyLevelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var profile models.Profile
	if err := database.DB.First(&profile, "user_id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}

	var level models.StudyLevel
	err = database.DB.First(&level, "profile_id = ?", profile.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		level = models.StudyLevel{Type: req.StudyLevel, ProfileID: profile.ID}
		if err := database.DB.Create(&level).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save study level"})
		}
		return c.Status(fiber.StatusCreated).JSON(level)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save study level"})
	}

	if err := database.DB.Model(&level).Update("type", req.StudyLevel).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save study level"})
	}
	level.Type = req.StudyLevel
	return c.JSON(level)
}
