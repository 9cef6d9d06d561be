package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrNotFound = errors.New("facility_not_found")

// Facility is a care site (clinic, hospital, diagnostic centre) that
// uploads ECGs and pays for analyses from its prepaid wallet.
type Facility struct {
	ID           snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name         string        `json:"name" gorm:"type:text;not null"`
	Email        string        `json:"email" gorm:"type:text;not null;uniqueIndex:ux_facilities_email"`
	Country      string        `json:"country" gorm:"type:text;not null"`
	ReferralCode string        `json:"referral_code" gorm:"type:text;not null;uniqueIndex:ux_facilities_referral_code"`
	ReferredBy   *snowflake.ID `json:"referred_by,omitempty" gorm:"index"`
	CreatedAt    time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Facility) TableName() string { return "facilities" }
