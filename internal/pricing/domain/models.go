package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type AnalysisType string

const (
	AnalysisTypeStandard AnalysisType = "standard"
	AnalysisTypeImage    AnalysisType = "image"
)

func (t AnalysisType) Valid() bool {
	return t == AnalysisTypeStandard || t == AnalysisTypeImage
}

// PricingConfig is the global price list. Rows are append-only; at most one
// row per analysis type carries is_active.
type PricingConfig struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	AnalysisType AnalysisType    `gorm:"size:16;not null;index:ix_pricing_configs_type" json:"analysis_type"`
	Price        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"price"`
	Currency     string          `gorm:"size:8;not null" json:"currency"`
	IsActive     bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (PricingConfig) TableName() string {
	return "pricing_configs"
}

// CountryPricing overrides the global price for one country. Same
// append-only versioning as PricingConfig.
type CountryPricing struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	Country      string          `gorm:"size:2;not null;index:ix_country_pricings_key" json:"country"`
	AnalysisType AnalysisType    `gorm:"size:16;not null;index:ix_country_pricings_key" json:"analysis_type"`
	Price        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"price"`
	Currency     string          `gorm:"size:8;not null" json:"currency"`
	IsActive     bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (CountryPricing) TableName() string {
	return "country_pricings"
}
