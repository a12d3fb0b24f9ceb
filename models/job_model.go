package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobLevelMainCategory = "MAIN_CATEGORY"
	JobLevelCategory     = "CATEGORY"
	JobLevelSubCategory  = "SUB_CATEGORY"
	JobLevelJob          = "JOB"
)

type Job struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Code        *string    `gorm:"size:50" json:"code"`
	Identifiers *string    `gorm:"size:50" json:"identifiers"`
	Level       string     `gorm:"size:20;not null" json:"level"`
	ParentID    *uuid.UUID `gorm:"type:uuid" json:"parent_id"`

	Parent   *Job   `gorm:"foreignkey:ParentID" json:"-"`
	Children []*Job `gorm:"foreignkey:ParentID" json:"children,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
