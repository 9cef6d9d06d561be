package domain

import (
	"context"
	"errors"

	facilitydomain "github.com/pulseware/platform/internal/facility/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest        = errors.New("invalid_request")
	ErrEmailTaken            = errors.New("email_taken")
	ErrReferralCodeExhausted = errors.New("referral_code_exhausted")
)

type Request struct {
	Name         string
	Email        string
	Country      string
	ReferralCode string
}

type Result struct {
	Facility        *facilitydomain.Facility
	SignupBonus     decimal.Decimal
	ReferralApplied bool
}

type Service interface {
	// Signup runs the onboarding cascade: facility, wallet, bonuses and
	// referral record commit or roll back as one unit.
	Signup(ctx context.Context, req Request) (*Result, error)
}
