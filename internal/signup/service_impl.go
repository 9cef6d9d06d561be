package signup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	"github.com/pulseware/platform/internal/config"
	facilitydomain "github.com/pulseware/platform/internal/facility/domain"
	"github.com/pulseware/platform/internal/metrics"
	"github.com/pulseware/platform/internal/signup/domain"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	"github.com/pulseware/platform/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Defaults applied when no bonus_configs row has been written yet.
var (
	defaultSignupBonus   = decimal.RequireFromString("50.00")
	defaultReferralBonus = decimal.RequireFromString("25.00")
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	WalletSvc walletdomain.Service
	AuditSvc  auditdomain.Service
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	caps      config.Capabilities
	walletSvc walletdomain.Service
	auditSvc  auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("signup.service"),
		genID:     p.GenID,
		caps:      p.Cfg.Capabilities,
		walletSvc: p.WalletSvc,
		auditSvc:  p.AuditSvc,
	}
}

// Signup creates the facility, its zero wallet, the signup bonus, and the
// referral bonus in one transaction. With the Bonuses capability enabled a
// bonus failure aborts the whole signup; deployments without the bonus
// schema disable the capability at startup and onboard without bonuses.
func (s *service) Signup(ctx context.Context, req domain.Request) (*domain.Result, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	country := strings.ToUpper(strings.TrimSpace(req.Country))
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidRequest
	}

	result := &domain.Result{SignupBonus: decimal.Zero}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := s.generateReferralCode(ctx, tx)
		if err != nil {
			return err
		}

		referrer, err := s.resolveReferrer(ctx, tx, req.ReferralCode)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		facility := &facilitydomain.Facility{
			ID:           s.genID.Generate(),
			Name:         name,
			Email:        email,
			Country:      country,
			ReferralCode: code,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if referrer != nil {
			facility.ReferredBy = &referrer.ID
		}
		if err := tx.Create(facility).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrEmailTaken
			}
			return err
		}

		if err := s.walletSvc.EnsureTx(ctx, tx, facility.ID); err != nil {
			return err
		}

		result.Facility = facility

		if !s.caps.Bonuses {
			return nil
		}

		cfg, err := s.loadBonusConfig(ctx, tx)
		if err != nil {
			return err
		}

		if cfg.SignupBonusEnabled && cfg.SignupBonusAmount.IsPositive() {
			if _, err := s.walletSvc.CreditTx(ctx, tx, walletdomain.MutationRequest{
				FacilityID:  facility.ID,
				Kind:        walletdomain.KindBonus,
				Amount:      cfg.SignupBonusAmount,
				Description: "signup bonus",
			}); err != nil {
				return err
			}
			result.SignupBonus = cfg.SignupBonusAmount
		}

		if referrer != nil && cfg.ReferralBonusEnabled && cfg.ReferralBonusAmount.IsPositive() {
			if _, err := s.walletSvc.CreditTx(ctx, tx, walletdomain.MutationRequest{
				FacilityID:  referrer.ID,
				Kind:        walletdomain.KindBonus,
				Amount:      cfg.ReferralBonusAmount,
				Description: "referral bonus for " + facility.Name,
			}); err != nil {
				return err
			}

			referral := &domain.Referral{
				ID:                  s.genID.Generate(),
				ReferringFacilityID: referrer.ID,
				ReferredFacilityID:  facility.ID,
				ReferralBonusAmount: cfg.ReferralBonusAmount,
				SignupBonusAmount:   result.SignupBonus,
				Status:              domain.ReferralStatusCompleted,
				CreatedAt:           now,
			}
			if err := tx.Create(referral).Error; err != nil {
				return err
			}
			result.ReferralApplied = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SignupsTotal.Inc()

	facilityID := result.Facility.ID.String()
	if auditErr := s.auditSvc.AuditLog(ctx, "system", "facility.signup", "facility", &facilityID, map[string]any{
		"signup_bonus":     result.SignupBonus.StringFixed(2),
		"referral_applied": result.ReferralApplied,
	}); auditErr != nil {
		s.log.Warn("failed to write signup audit log", zap.Error(auditErr))
	}

	return result, nil
}

func (s *service) generateReferralCode(ctx context.Context, tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxReferralCodeAttempts; attempt++ {
		code, err := randomReferralCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.WithContext(ctx).
			Model(&facilitydomain.Facility{}).
			Where("referral_code = ?", code).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", domain.ErrReferralCodeExhausted
}

// resolveReferrer looks up the supplied code. Referral is opportunistic:
// an unknown or empty code is ignored, never an error.
func (s *service) resolveReferrer(ctx context.Context, tx *gorm.DB, code string) (*facilitydomain.Facility, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	var referrer facilitydomain.Facility
	err := tx.WithContext(ctx).
		Where("referral_code = ?", code).
		First(&referrer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referrer, nil
}

func (s *service) loadBonusConfig(ctx context.Context, tx *gorm.DB) (*domain.BonusConfig, error) {
	var cfg domain.BonusConfig
	err := tx.WithContext(ctx).
		Order("created_at DESC, id DESC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.BonusConfig{
				SignupBonusEnabled:   true,
				SignupBonusAmount:    defaultSignupBonus,
				ReferralBonusEnabled: true,
				ReferralBonusAmount:  defaultReferralBonus,
			}, nil
		}
		return nil, err
	}
	return &cfg, nil
}
