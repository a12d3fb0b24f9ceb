package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;unique" json:"user_id"`

	FirstName   string  `gorm:"size:100" json:"first_name"`
	LastName    string  `gorm:"size:100" json:"last_name"`
	PhoneNumber *string `gorm:"size:30" json:"phone_number"`
	Headline    *string `gorm:"size:255" json:"headline"`
	Company     *string `gorm:"size:255" json:"company"`
	Location    *string `gorm:"size:255" json:"location"`
	PhotoURL    *string `gorm:"size:255" json:"photo_url"`

	JobID *uuid.UUID `gorm:"type:uuid" json:"job_id"`
	Job   *Job       `json:"job,omitempty"`

	StudyLevel *StudyLevel `gorm:"foreignkey:ProfileID" json:"study_level,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
