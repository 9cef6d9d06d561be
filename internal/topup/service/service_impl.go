package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/pulseware/platform/internal/config"
	topupdomain "github.com/pulseware/platform/internal/topup/domain"
	"github.com/pulseware/platform/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	currency string
}

func NewService(p Params) topupdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("topup.service"),
		genID:    p.GenID,
		currency: p.Cfg.DefaultCurrency,
	}
}

func (s *Service) Initiate(ctx context.Context, req topupdomain.InitiateRequest) (*topupdomain.TopUp, error) {
	if req.FacilityID == 0 || !req.Amount.IsPositive() {
		return nil, topupdomain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	topup := &topupdomain.TopUp{
		ID:              s.genID.Generate(),
		FacilityID:      req.FacilityID,
		AmountRequested: req.Amount,
		Reference:       uuid.NewString(),
		Currency:        s.currency,
		Status:          topupdomain.TopUpStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(topup).Error; err != nil {
		return nil, err
	}

	s.log.Info("top-up initiated",
		zap.String("facility_id", req.FacilityID.String()),
		zap.String("reference", topup.Reference),
		zap.String("amount", req.Amount.StringFixed(2)),
	)
	return topup, nil
}

func (s *Service) Cancel(ctx context.Context, facilityID, topupID snowflake.ID) (*topupdomain.TopUp, error) {
	var topup topupdomain.TopUp
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := db.LockForUpdate(tx.WithContext(ctx)).
			Where("id = ? AND facility_id = ?", topupID, facilityID).
			First(&topup).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return topupdomain.ErrNotFound
			}
			return err
		}

		if topup.Status != topupdomain.TopUpStatusPending {
			return topupdomain.ErrNotPending
		}

		now := time.Now().UTC()
		if err := tx.WithContext(ctx).
			Model(&topupdomain.TopUp{}).
			Where("id = ?", topup.ID).
			Updates(map[string]any{"status": topupdomain.TopUpStatusCancelled, "updated_at": now}).Error; err != nil {
			return err
		}
		topup.Status = topupdomain.TopUpStatusCancelled
		topup.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &topup, nil
}

func (s *Service) List(ctx context.Context, facilityID snowflake.ID) ([]topupdomain.TopUp, error) {
	var items []topupdomain.TopUp
	err := s.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
