package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/infinyhq/infiny_backend/database"
	"github.com/infinyhq/infiny_backend/middleware"
	"github.com/infinyhq/infiny_backend/models"
)

type CreateCompanyRequest struct {
	Name          string  `json:"name" validate:"required"`
	Siret         *string `json:"siret" validate:"omitempty,len=14"`
	Address       string  `json:"address" validate:"required"`
	PostalCode    string  `json:"postal_code" validate:"required"`
	City          string  `json:"city" validate:"required"`
	CompanyType   string  `json:"company_type" validate:"required,oneof=TPE PE ME GE"`
	Sector        string  `json:"sector" validate:"required"`
	EmployeeCount int     `json:"employee_count" validate:"required,min=1"`
	UserPosition  string  `json:"user_position" validate:"required"`
}

type UpdateCompanyRequest struct {
	Name          *string `json:"name"`
	Siret         *string `json:"siret" validate:"omitempty,len=14"`
	Address       *string `json:"address"`
	PostalCode    *string `json:"postal_code"`
	City          *string `json:"city"`
	CompanyType   *string `json:"company_type" validate:"omitempty,oneof=TPE PE ME GE"`
	Sector        *string `json:"sector"`
	EmployeeCount *int    `json:"employee_count" validate:"omitempty,min=1"`
	UserPosition  *string `json:"user_position"`
}

func CreateCompany(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CreateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	company := models.Company{
		Name:          req.Name,
		Siret:         req.Siret,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		City:          req.City,
		CompanyType:   req.CompanyType,
		Sector:        req.Sector,
		EmployeeCount: req.EmployeeCount,
		UserPosition:  req.UserPosition,
		UserID:        userID,
	}
	if err := database.DB.Create(&company).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create company"})
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

// SearchCompanies matches name or city, case-insensitive, paginated.
func SearchCompanies(c *fiber.Ctx) error {
	if _, err := middleware.CurrentUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := c.Query("query")
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	take := c.QueryInt("take", 10)
	if take < 1 {
		take = 10
	}

	scoped := func() *gorm.DB {
		tx := database.DB.Model(&models.Company{})
		if query != "" {
			pattern := "%" + strings.ToLower(query) + "%"
			tx = tx.Where("LOWER(name) LIKE ? OR LOWER(city) LIKE ?", pattern, pattern)
		}
		return tx
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Search failed"})
	}

	var companies []models.Company
	err := scoped().
		Order("name asc").
		Offset((page - 1) * take).
		Limit(take).
		Find(&companies).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Search failed"})
	}

	pageCount := int((total + int64(take) - 1) / int64(take))
	return c.JSON(fiber.Map{
		"data": companies,
		"meta": fiber.Map{
			"total":             total,
			"page":              page,
			"take":              take,
			"page_count":        pageCount,
			"has_previous_page": page > 1,
			"has_next_page":     page < pageCount,
		},
	})
}

func UpdateCompany(c *fiber.Ctx) error {
	if _, err := middleware.CurrentUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	companyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid company id"})
	}

	var req UpdateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var company models.Company
	if err := database.DB.First(&company, "id = ?", companyID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Company not found"})
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Siret != nil {
		company.Siret = req.Siret
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.PostalCode != nil {
		company.PostalCode = *req.PostalCode
	}
	if req.City != nil {
		company.City = *req.City
	}
	if req.CompanyType != nil {
		company.CompanyType = *req.CompanyType
	}
	if req.Sector != nil {
		company.Sector = *req.Sector
	}
	if req.EmployeeCount != nil {
		company.EmployeeCount = *req.EmployeeCount
	}
	if req.UserPosition != nil {
		company.UserPosition = *req.UserPosition
	}

	if err := database.DB.Save(&company).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update company"})
	}
	return c.JSON(company)
}
