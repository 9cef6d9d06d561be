package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TopUpStatus is the lifecycle of a payment intent. pending is the only
// non-terminal state; verified, failed and cancelled are all final.
type TopUpStatus string

const (
	TopUpStatusPending   TopUpStatus = "pending"
	TopUpStatusVerified  TopUpStatus = "verified"
	TopUpStatusFailed    TopUpStatus = "failed"
	TopUpStatusCancelled TopUpStatus = "cancelled"
)

// TopUp is a payment intent created before redirecting the facility to the
// gateway. Reference is the idempotency key for webhook reconciliation.
type TopUp struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	FacilityID      snowflake.ID      `json:"facility_id" gorm:"not null;index"`
	AmountRequested decimal.Decimal   `json:"amount_requested" gorm:"type:numeric(20,2);not null"`
	AmountReceived  *decimal.Decimal  `json:"amount_received,omitempty" gorm:"type:numeric(20,2)"`
	Reference       string            `json:"reference" gorm:"type:text;not null;uniqueIndex:ux_topups_reference"`
	Currency        string            `json:"currency" gorm:"type:text;not null"`
	Status          TopUpStatus       `json:"status" gorm:"type:text;not null;index"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	VerifiedAt      *time.Time        `json:"verified_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TopUp) TableName() string { return "topups" }
