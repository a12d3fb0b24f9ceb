package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CompanyTypeTPE = "TPE"
	CompanyTypePE  = "PE"
	CompanyTypeME  = "ME"
	CompanyTypeGE  = "GE"
)

type Company struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Siret         *string   `gorm:"size:14" json:"siret"`
	Address       string    `gorm:"size:255;not null" json:"address"`
	PostalCode    string    `gorm:"size:10;not null" json:"postal_code"`
	City          string    `gorm:"size:100;not null" json:"city"`
	CompanyType   string    `gorm:"size:10;not null" json:"company_type"`
	Sector        string    `gorm:"size:50;not null" json:"sector"`
	EmployeeCount int       `gorm:"not null" json:"employee_count"`
	UserPosition  string    `gorm:"size:100;not null" json:"user_position"`
	UserID        uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
