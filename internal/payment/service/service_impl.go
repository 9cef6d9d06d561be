package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	"github.com/pulseware/platform/internal/metrics"
	"github.com/pulseware/platform/internal/payment/domain"
	"github.com/pulseware/platform/internal/payment/gateway"
	topupdomain "github.com/pulseware/platform/internal/topup/domain"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	"github.com/pulseware/platform/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Adapter gateway.Adapter
	Wallet  walletdomain.Service
	Audit   auditdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	adapter gateway.Adapter
	wallet  walletdomain.Service
	audit   auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		adapter: p.Adapter,
		wallet:  p.Wallet,
		audit:   p.Audit,
	}
}

// Ingest verifies the delivery against the gateway secret, records it, and
// reconciles successful charges into the wallet ledger. Replays of a
// reference that already reconciled are acknowledged without a second credit.
func (s *Service) Ingest(ctx context.Context, body []byte, headers map[string]string) (*domain.IngestResult, error) {
	if err := s.adapter.Verify(body, headers); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	event, err := s.adapter.Parse(body)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	record := &domain.WebhookEvent{
		ID:        s.genID.Generate(),
		Provider:  s.adapter.Provider(),
		EventType: event.Type,
		Payload:   datatypes.JSON(body),
		Status:    domain.WebhookStatusPending,
	}
	if event.Reference != "" {
		ref := event.Reference
		record.Reference = &ref
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}

	result := &domain.IngestResult{EventID: record.ID}
	procErr := s.dispatch(ctx, event, result)
	if procErr != nil {
		s.markEvent(ctx, record.ID, domain.WebhookStatusFailed, procErr)
		metrics.WebhookEventsTotal.WithLabelValues("failed").Inc()
		s.log.Error("webhook processing failed",
			zap.String("event_type", event.Type),
			zap.String("reference", event.Reference),
			zap.Error(procErr),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrProcessingFailed, procErr)
	}

	s.markEvent(ctx, record.ID, domain.WebhookStatusProcessed, nil)
	metrics.WebhookEventsTotal.WithLabelValues("processed").Inc()
	return result, nil
}

func (s *Service) dispatch(ctx context.Context, event *gateway.Event, result *domain.IngestResult) error {
	switch event.Type {
	case "charge.success":
		return s.reconcileCharge(ctx, event, result)
	default:
		// Events we do not act on are still acknowledged so the gateway
		// stops redelivering them.
		s.log.Info("webhook event ignored", zap.String("event_type", event.Type))
		return nil
	}
}

func (s *Service) reconcileCharge(ctx context.Context, event *gateway.Event, result *domain.IngestResult) error {
	if event.Reference == "" {
		return domain.ErrInvalidPayload
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var topup topupdomain.TopUp
		err := db.LockForUpdate(tx.WithContext(ctx)).
			Where("reference = ?", event.Reference).
			First(&topup).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// A reference we never issued will never become one we
				// did; acknowledge so the gateway stops redelivering.
				result.Replayed = true
				s.log.Info("webhook for unknown reference ignored",
					zap.String("reference", event.Reference),
				)
				return nil
			}
			return err
		}

		if topup.Status != topupdomain.TopUpStatusPending {
			// Gateway retried a delivery we already reconciled.
			result.Replayed = true
			s.log.Info("webhook replay ignored",
				zap.String("reference", event.Reference),
				zap.String("status", string(topup.Status)),
			)
			return nil
		}

		now := time.Now().UTC()
		if event.Status != "success" {
			return tx.WithContext(ctx).
				Model(&topupdomain.TopUp{}).
				Where("id = ?", topup.ID).
				Updates(map[string]any{"status": topupdomain.TopUpStatusFailed, "updated_at": now}).Error
		}

		received := decimal.NewFromInt(event.Amount).Div(decimal.NewFromInt(100))
		reference := topup.Reference
		if _, err := s.wallet.CreditTx(ctx, tx, walletdomain.MutationRequest{
			FacilityID:  topup.FacilityID,
			Kind:        walletdomain.KindTopup,
			Amount:      received,
			Description: "wallet top-up via " + s.adapter.Provider(),
			ReferenceID: &reference,
			Metadata: map[string]any{
				"provider": s.adapter.Provider(),
				"currency": event.Currency,
			},
		}); err != nil {
			return err
		}

		if err := tx.WithContext(ctx).
			Model(&topupdomain.TopUp{}).
			Where("id = ?", topup.ID).
			Updates(map[string]any{
				"status":          topupdomain.TopUpStatusVerified,
				"amount_received": received,
				"verified_at":     now,
				"updated_at":      now,
			}).Error; err != nil {
			return err
		}

		result.Applied = true
		targetID := topup.ID.String()
		if err := s.audit.AuditLog(ctx, auditdomain.ActorTypeGateway, "topup.verified", "topup", &targetID, map[string]any{
			"reference": topup.Reference,
			"amount":    received.StringFixed(2),
		}); err != nil {
			s.log.Warn("audit log failed", zap.Error(err))
		}
		return nil
	})
}

func (s *Service) markEvent(ctx context.Context, id snowflake.ID, status domain.WebhookStatus, procErr error) {
	updates := map[string]any{
		"status":     status,
		"attempts":   gorm.Expr("attempts + 1"),
		"updated_at": time.Now().UTC(),
	}
	if procErr != nil {
		msg := procErr.Error()
		if len(msg) > 512 {
			msg = msg[:512]
		}
		updates["error"] = msg
	}
	if err := s.db.WithContext(ctx).
		Model(&domain.WebhookEvent{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		s.log.Warn("webhook event status update failed", zap.Error(err))
	}
}
