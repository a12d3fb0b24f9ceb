package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanTypeEssential = "ESSENTIAL"
	PlanTypePremium   = "PREMIUM"
)

const (
	SubscriptionStatusActive     = "ACTIVE"
	SubscriptionStatusCanceled   = "CANCELED"
	SubscriptionStatusIncomplete = "INCOMPLETE"
	SubscriptionStatusPastDue    = "PAST_DUE"
	SubscriptionStatusTrialing   = "TRIALING"
)

type Subscription struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID               uuid.UUID  `gorm:"type:uuid;not null;unique" json:"user_id"`
	StripeSubscriptionID string     `gorm:"size:255;not null;unique" json:"stripe_subscription_id"`
	PlanType             string     `gorm:"size:20;not null" json:"plan_type"`
	Status               string     `gorm:"size:20;not null" json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Price struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PlanType      string    `gorm:"size:20;not null" json:"plan_type"`
	PricingType   string    `gorm:"size:20;not null;default:'RECURRING'" json:"pricing_type"`
	StripePriceID string    `gorm:"size:255;not null" json:"stripe_price_id"`
	Amount        int64     `gorm:"not null" json:"amount"` // cents
	Currency      string    `gorm:"size:10;not null;default:'eur'" json:"currency"`

	CreatedAt time.Time `json:"created_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (p *Price) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
