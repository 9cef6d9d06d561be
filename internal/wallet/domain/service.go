package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/pulseware/platform/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidFacility     = errors.New("invalid_facility")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidKind         = errors.New("invalid_entry_kind")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrWalletNotFound      = errors.New("wallet_not_found")
)

// MutationRequest describes one credit or debit against a facility wallet.
type MutationRequest struct {
	FacilityID  snowflake.ID
	Kind        EntryKind
	Amount      decimal.Decimal
	Description string
	ReferenceID *string
	Metadata    map[string]any
}

type ListEntriesRequest struct {
	pagination.Pagination
	FacilityID snowflake.ID
	Kind       EntryKind
}

type ListEntriesResponse struct {
	PageInfo pagination.PageInfo `json:"page_info"`
	Entries  []LedgerEntry       `json:"entries"`
}

// Service is the ledger engine. Every wallet mutation in the system goes
// through Credit or Debit; nothing else writes wallets or ledger entries.
type Service interface {
	// Credit adds funds. The wallet row is created with a zero balance
	// first if the facility has never held one.
	Credit(ctx context.Context, req MutationRequest) (*LedgerEntry, error)
	// CreditTx is Credit running inside the caller's transaction, so
	// cascades (onboarding, webhook reconciliation) stay atomic.
	CreditTx(ctx context.Context, tx *gorm.DB, req MutationRequest) (*LedgerEntry, error)
	// Debit removes funds, failing with ErrInsufficientBalance and no
	// mutation when the balance does not cover the amount.
	Debit(ctx context.Context, req MutationRequest) (*LedgerEntry, error)
	DebitTx(ctx context.Context, tx *gorm.DB, req MutationRequest) (*LedgerEntry, error)
	// EnsureTx guarantees a zero-balance wallet row exists for the facility.
	EnsureTx(ctx context.Context, tx *gorm.DB, facilityID snowflake.ID) error
	Balance(ctx context.Context, facilityID snowflake.ID) (*Wallet, error)
	Entries(ctx context.Context, req ListEntriesRequest) (*ListEntriesResponse, error)
}
