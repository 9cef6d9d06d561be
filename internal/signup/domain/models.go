package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ReferralStatus string

const (
	ReferralStatusCompleted ReferralStatus = "completed"
)

// Referral links a referring facility to the facility that used its code,
// written at most once per referred facility inside the signup transaction.
type Referral struct {
	ID                  snowflake.ID    `json:"id" gorm:"primaryKey"`
	ReferringFacilityID snowflake.ID    `json:"referring_facility_id" gorm:"not null;index"`
	ReferredFacilityID  snowflake.ID    `json:"referred_facility_id" gorm:"not null;uniqueIndex:ux_referrals_referred"`
	ReferralBonusAmount decimal.Decimal `json:"referral_bonus_amount" gorm:"type:numeric(20,2);not null"`
	SignupBonusAmount   decimal.Decimal `json:"signup_bonus_amount" gorm:"type:numeric(20,2);not null"`
	Status              ReferralStatus  `json:"status" gorm:"type:text;not null"`
	CreatedAt           time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Referral) TableName() string { return "referrals" }

// BonusConfig holds the onboarding bonus amounts. The latest row wins;
// hardcoded defaults apply when the table is empty.
type BonusConfig struct {
	ID                   snowflake.ID    `json:"id" gorm:"primaryKey"`
	SignupBonusEnabled   bool            `json:"signup_bonus_enabled" gorm:"not null;default:true"`
	SignupBonusAmount    decimal.Decimal `json:"signup_bonus_amount" gorm:"type:numeric(20,2);not null"`
	ReferralBonusEnabled bool            `json:"referral_bonus_enabled" gorm:"not null;default:true"`
	ReferralBonusAmount  decimal.Decimal `json:"referral_bonus_amount" gorm:"type:numeric(20,2);not null"`
	CreatedAt            time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BonusConfig) TableName() string { return "bonus_configs" }
