package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	"github.com/pulseware/platform/internal/config"
	"github.com/pulseware/platform/internal/pricing/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultPrices = map[domain.AnalysisType]decimal.Decimal{
	domain.AnalysisTypeStandard: decimal.New(25000, -2), // 250.00
	domain.AnalysisTypeImage:    decimal.New(40000, -2), // 400.00
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
	Audit auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	currency string
	audit    auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("pricing.service"),
		genID:    p.GenID,
		currency: p.Cfg.DefaultCurrency,
		audit:    p.Audit,
	}
}

func (s *Service) Resolve(ctx context.Context, analysisType domain.AnalysisType, country string) (*domain.ResolvedPrice, error) {
	if !analysisType.Valid() {
		return nil, domain.ErrInvalidAnalysisType
	}
	country = strings.ToUpper(strings.TrimSpace(country))

	if country != "" {
		var override domain.CountryPricing
		err := s.db.WithContext(ctx).
			Where("country = ? AND analysis_type = ? AND is_active = ?", country, analysisType, true).
			First(&override).Error
		if err == nil {
			return &domain.ResolvedPrice{
				AnalysisType: analysisType,
				Price:        override.Price,
				Currency:     override.Currency,
				Source:       domain.SourceCountry,
			}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var global domain.PricingConfig
	err := s.db.WithContext(ctx).
		Where("analysis_type = ? AND is_active = ?", analysisType, true).
		First(&global).Error
	if err == nil {
		return &domain.ResolvedPrice{
			AnalysisType: analysisType,
			Price:        global.Price,
			Currency:     global.Currency,
			Source:       domain.SourceGlobal,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &domain.ResolvedPrice{
		AnalysisType: analysisType,
		Price:        defaultPrices[analysisType],
		Currency:     s.currency,
		Source:       domain.SourceDefault,
	}, nil
}

func (s *Service) UpdatePrice(ctx context.Context, req domain.UpdatePriceRequest) (*domain.ResolvedPrice, error) {
	if !req.AnalysisType.Valid() {
		return nil, domain.ErrInvalidAnalysisType
	}
	if !req.Price.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}
	country := strings.ToUpper(strings.TrimSpace(req.Country))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if country != "" {
			if err := tx.WithContext(ctx).
				Model(&domain.CountryPricing{}).
				Where("country = ? AND analysis_type = ? AND is_active = ?", country, req.AnalysisType, true).
				Update("is_active", false).Error; err != nil {
				return err
			}
			return tx.WithContext(ctx).Create(&domain.CountryPricing{
				ID:           s.genID.Generate(),
				Country:      country,
				AnalysisType: req.AnalysisType,
				Price:        req.Price,
				Currency:     s.currency,
				IsActive:     true,
				CreatedAt:    now,
			}).Error
		}

		if err := tx.WithContext(ctx).
			Model(&domain.PricingConfig{}).
			Where("analysis_type = ? AND is_active = ?", req.AnalysisType, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Create(&domain.PricingConfig{
			ID:           s.genID.Generate(),
			AnalysisType: req.AnalysisType,
			Price:        req.Price,
			Currency:     s.currency,
			IsActive:     true,
			CreatedAt:    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.AuditLog(ctx, req.Actor, "price.updated", "pricing", nil, map[string]any{
		"analysis_type": string(req.AnalysisType),
		"country":       country,
		"price":         req.Price.StringFixed(2),
	}); err != nil {
		s.log.Warn("audit log failed", zap.Error(err))
	}

	source := domain.SourceGlobal
	if country != "" {
		source = domain.SourceCountry
	}
	return &domain.ResolvedPrice{
		AnalysisType: req.AnalysisType,
		Price:        req.Price,
		Currency:     s.currency,
		Source:       source,
	}, nil
}
