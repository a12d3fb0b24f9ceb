package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StudyLevelCAP      = "CAP"
	StudyLevelBac      = "BAC"
	StudyLevelBacPlus2 = "BAC_PLUS_2"
	StudyLevelBacPlus3 = "BAC_PLUS_3"
	StudyLevelBacPlus5 = "BAC_PLUS_5"
	StudyLevelBacPlus8 = "BAC_PLUS_8"
)

// StudyLevel holds a profile's declared education level, one row per profile.
type StudyLevel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Type      string    `gorm:"size:20;not null" json:"type"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;unique" json:"profile_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *StudyLevel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
