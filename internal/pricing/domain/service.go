package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAnalysisType = errors.New("invalid_analysis_type")
	ErrInvalidPrice        = errors.New("invalid_price")
)

type PriceSource string

const (
	SourceCountry PriceSource = "country"
	SourceGlobal  PriceSource = "global"
	SourceDefault PriceSource = "default"
)

type ResolvedPrice struct {
	AnalysisType AnalysisType    `json:"analysis_type"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	Source       PriceSource     `json:"source"`
}

type UpdatePriceRequest struct {
	AnalysisType AnalysisType
	Country      string // empty updates the global price
	Price        decimal.Decimal
	Actor        string
}

type Service interface {
	// Resolve returns the effective price for an analysis: the active
	// country override when one exists, otherwise the active global
	// price, otherwise a built-in default.
	Resolve(ctx context.Context, analysisType AnalysisType, country string) (*ResolvedPrice, error)
	// UpdatePrice retires the active row for the key and appends a new
	// active one. Prior rows are never rewritten.
	UpdatePrice(ctx context.Context, req UpdatePriceRequest) (*ResolvedPrice, error)
}
