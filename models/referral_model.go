package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReferralStatusPending  = "PENDING"
	ReferralStatusAccepted = "ACCEPTED"
	ReferralStatusRejected = "REJECTED"
)

const (
	RelationTypeProfessional = "PROFESSIONAL"
	RelationTypePersonal     = "PERSONAL"
)

type Referral struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	RequesterID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_requester_referrer" json:"requester_id"`
	ReferrerID  *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_requester_referrer" json:"referrer_id"` // nil until an invited email registers

	Status       string `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	Message      string `gorm:"size:500" json:"message"`
	RelationType string `gorm:"size:20;not null" json:"relation_type"`

	// ResponseToken and TokenExpiry are always set (or cleared) together.
	ResponseToken *string    `gorm:"size:64" json:"-"`
	TokenExpiry   *time.Time `json:"token_expiry,omitempty"`

	ResponseMessage *string    `gorm:"size:500" json:"response_message,omitempty"`
	ResponseDate    *time.Time `json:"response_date,omitempty"`

	// Snapshot taken at creation so the expiry sweep can name the referrer
	// even when the invite went to an unregistered email.
	ReferrerFirstName *string `gorm:"size:100" json:"referrer_first_name,omitempty"`
	InviteEmail       *string `gorm:"size:255" json:"invite_email,omitempty"`

	Requester *User `gorm:"foreignkey:RequesterID" json:"requester,omitempty"`
	Referrer  *User `gorm:"foreignkey:ReferrerID" json:"referrer,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
