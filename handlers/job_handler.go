package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infinyhq/infiny_backend/database"
	"github.com/infinyhq/infiny_backend/models"
)

type CreateJobRequest struct {
	Name            string `json:"name" validate:"required"`
	SubCategoryName string `json:"sub_category_name" validate:"required"`
	Code            string `json:"code"`
}

// ListMainCategories returns the top level of the job taxonomy tree.
func ListMainCategories(c *fiber.Ctx) error {
	var jobs []models.Job
	err := database.DB.
		Where("level = ?", models.JobLevelMainCategory).
		Order("identifiers asc").
		Find(&jobs).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list job categories"})
	}
	return c.JSON(jobs)
}

// ListSubCategories returns the subcategories under a main category, matched
// by the main category's identifier prefix.
func ListSubCategories(c *fiber.Ctx) error {
	mainName := c.Query("main")
	if mainName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing main query parameter"})
	}

	var mainJob models.Job
	if err := database.DB.Where("name = ?", mainName).First(&mainJob).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Job category not found"})
	}
	if mainJob.Identifiers == nil || *mainJob.Identifiers == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Job category has no identifiers"})
	}

	prefix := string((*mainJob.Identifiers)[0])

	var subCategories []models.Job
	err := database.DB.
		Where("identifiers LIKE ? AND level = ?", prefix+"%", models.JobLevelSubCategory).
		Order("identifiers asc").
		Find(&subCategories).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list subcategories"})
	}
	return c.JSON(subCategories)
}

// ListJobs returns the leaf jobs under a subcategory.
func ListJobs(c *fiber.Ctx) error {
	subName := c.Query("sub")
	if subName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing sub query parameter"})
	}

	var subCategory models.Job
	if err := database.DB.Where("name = ?", subName).First(&subCategory).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subcategory not found"})
	}

	var jobs []models.Job
	err := database.DB.
		Where("parent_id = ? AND level = ?", subCategory.ID, models.JobLevelJob).
		Order("identifiers asc").
		Find(&jobs).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list jobs"})
	}
	return c.JSON(jobs)
}

// CreateJob adds a leaf job under an existing subcategory (admin only).
func CreateJob(c *fiber.Ctx) error {
	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var subCategory models.Job
	if err := database.DB.Where("name = ?", req.SubCategoryName).First(&subCategory).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subcategory not found"})
	}

	job := models.Job{
		Name:        req.Name,
		Identifiers: subCategory.Identifiers,
		ParentID:    &subCategory.ID,
		Level:       models.JobLevelJob,
	}
	if req.Code != "" {
		job.Code = &req.Code
	}

	if err := database.DB.Create(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create job"})
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}
