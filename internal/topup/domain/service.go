package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrNotFound      = errors.New("topup_not_found")
	ErrNotPending    = errors.New("topup_not_pending")
)

type InitiateRequest struct {
	FacilityID snowflake.ID
	Amount     decimal.Decimal
}

type Service interface {
	// Initiate creates a pending payment intent whose reference is handed
	// to the gateway for the checkout redirect.
	Initiate(ctx context.Context, req InitiateRequest) (*TopUp, error)
	// Cancel moves a still-pending top-up to cancelled. Terminal top-ups
	// are never touched.
	Cancel(ctx context.Context, facilityID, topupID snowflake.ID) (*TopUp, error)
	List(ctx context.Context, facilityID snowflake.ID) ([]TopUp, error)
}
