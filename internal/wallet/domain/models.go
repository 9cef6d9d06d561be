package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EntryKind classifies a ledger entry. Amounts are always positive; the
// kind implies the sign of the mutation.
type EntryKind string

const (
	KindTopup      EntryKind = "topup"
	KindDeduction  EntryKind = "deduction"
	KindRefund     EntryKind = "refund"
	KindAdjustment EntryKind = "adjustment"
	KindBonus      EntryKind = "bonus"
)

type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
	EntryStatusRefunded  EntryStatus = "refunded"
)

// Wallet is the prepaid balance of one facility. The balance is mutated
// only through the ledger service, under a row-level lock.
type Wallet struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	FacilityID snowflake.ID    `json:"facility_id" gorm:"not null;uniqueIndex:ux_wallets_facility"`
	Balance    decimal.Decimal `json:"balance" gorm:"type:numeric(20,2);not null"`
	Currency   string          `json:"currency" gorm:"type:text;not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Wallet) TableName() string { return "wallets" }

// LedgerEntry is the immutable record of one balance mutation, capturing
// the balance before and after atomically with the wallet write.
type LedgerEntry struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	FacilityID    snowflake.ID      `json:"facility_id" gorm:"not null;index"`
	Kind          EntryKind         `json:"kind" gorm:"type:text;not null"`
	Amount        decimal.Decimal   `json:"amount" gorm:"type:numeric(20,2);not null"`
	BalanceBefore decimal.Decimal   `json:"balance_before" gorm:"type:numeric(20,2);not null"`
	BalanceAfter  decimal.Decimal   `json:"balance_after" gorm:"type:numeric(20,2);not null"`
	Description   string            `json:"description" gorm:"type:text;not null"`
	ReferenceID   *string           `json:"reference_id,omitempty" gorm:"type:text;index"`
	Status        EntryStatus       `json:"status" gorm:"type:text;not null"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// Signed returns the entry amount with the sign implied by its kind.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Kind == KindDeduction {
		return e.Amount.Neg()
	}
	return e.Amount
}
