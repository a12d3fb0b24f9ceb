package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UserTypeUser        = "USER"
	UserTypeRecommender = "RECOMMENDER"
	UserTypeAdmin       = "ADMIN"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password *string   `json:"-"` // nil for OAuth-only accounts
	Type     string    `gorm:"size:20;not null;default:'USER'" json:"type"`
	Provider string    `gorm:"size:20;not null;default:'local'" json:"provider"`

	IsActive   bool `gorm:"default:true" json:"is_active"`
	IsVerified bool `gorm:"default:false" json:"is_verified"`

	VerificationToken *string    `gorm:"size:255;unique" json:"-"`
	TokenExpiry       *time.Time `json:"-"`

	ResetPasswordToken          *string    `gorm:"size:255;unique" json:"-"`
	ResetPasswordTokenExpiresAt *time.Time `json:"-"`

	StripeCustomerID *string `gorm:"size:255" json:"-"`

	Profile *Profile `json:"profile,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
