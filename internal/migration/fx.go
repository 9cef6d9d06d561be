package migration

import (
	"github.com/bwmarrin/snowflake"
	analysisdomain "github.com/pulseware/platform/internal/analysis/domain"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	"github.com/pulseware/platform/internal/config"
	facilitydomain "github.com/pulseware/platform/internal/facility/domain"
	paymentdomain "github.com/pulseware/platform/internal/payment/domain"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	"github.com/pulseware/platform/internal/seed"
	signupdomain "github.com/pulseware/platform/internal/signup/domain"
	topupdomain "github.com/pulseware/platform/internal/topup/domain"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Local sqlite deployments have no migration history to
			// preserve; the model schema is authoritative.
			if err := conn.AutoMigrate(
				&facilitydomain.Facility{},
				&walletdomain.Wallet{},
				&walletdomain.LedgerEntry{},
				&topupdomain.TopUp{},
				&paymentdomain.WebhookEvent{},
				&signupdomain.Referral{},
				&signupdomain.BonusConfig{},
				&pricingdomain.PricingConfig{},
				&pricingdomain.CountryPricing{},
				&auditdomain.AuditLog{},
				&analysisdomain.Analysis{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureDefaultPricing(conn, node, cfg.DefaultCurrency); err != nil {
			return err
		}
		return seed.EnsureDefaultBonusConfig(conn, node)
	}),
)
