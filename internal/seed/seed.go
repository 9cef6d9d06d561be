package seed

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	signupdomain "github.com/pulseware/platform/internal/signup/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EnsureDefaultPricing inserts an active global price per analysis type when
// a fresh database has none, so the resolver never has to fall back to the
// hardcoded defaults in normal operation.
func EnsureDefaultPricing(conn *gorm.DB, node *snowflake.Node, currency string) error {
	if conn == nil || node == nil {
		return errors.New("seed requires a database connection and id node")
	}

	defaults := []struct {
		analysisType pricingdomain.AnalysisType
		price        decimal.Decimal
	}{
		{pricingdomain.AnalysisTypeStandard, decimal.New(25000, -2)},
		{pricingdomain.AnalysisTypeImage, decimal.New(40000, -2)},
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		for _, def := range defaults {
			var count int64
			if err := tx.Model(&pricingdomain.PricingConfig{}).
				Where("analysis_type = ? AND is_active = ?", def.analysisType, true).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&pricingdomain.PricingConfig{
				ID:           node.Generate(),
				AnalysisType: def.analysisType,
				Price:        def.price,
				Currency:     currency,
				IsActive:     true,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureDefaultBonusConfig writes the initial bonus amounts for a fresh
// database. The signup cascade falls back to built-in defaults when the
// table is empty, so this only pins explicit values.
func EnsureDefaultBonusConfig(conn *gorm.DB, node *snowflake.Node) error {
	if conn == nil || node == nil {
		return errors.New("seed requires a database connection and id node")
	}

	var count int64
	if err := conn.Model(&signupdomain.BonusConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return conn.Create(&signupdomain.BonusConfig{
		ID:                   node.Generate(),
		SignupBonusEnabled:   true,
		SignupBonusAmount:    decimal.New(5000, -2),
		ReferralBonusEnabled: true,
		ReferralBonusAmount:  decimal.New(2500, -2),
	}).Error
}
