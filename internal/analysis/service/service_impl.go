package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/pulseware/platform/internal/analysis/domain"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Wallet      walletdomain.Service
	Pricing     pricingdomain.Service
	Interpreter domain.Interpreter
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	wallet      walletdomain.Service
	pricing     pricingdomain.Service
	interpreter domain.Interpreter
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("analysis.service"),
		genID:       p.GenID,
		wallet:      p.Wallet,
		pricing:     p.Pricing,
		interpreter: p.Interpreter,
	}
}

func (s *Service) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Analysis, error) {
	if req.FacilityID == 0 || !req.AnalysisType.Valid() {
		return nil, domain.ErrInvalidRequest
	}

	price, err := s.pricing.Resolve(ctx, req.AnalysisType, req.Country)
	if err != nil {
		return nil, err
	}

	analysisID := s.genID.Generate()
	reference := analysisID.String()
	description := fmt.Sprintf("%s analysis", req.AnalysisType)

	if _, err := s.wallet.Debit(ctx, walletdomain.MutationRequest{
		FacilityID:  req.FacilityID,
		Kind:        walletdomain.KindDeduction,
		Amount:      price.Price,
		Description: description,
		ReferenceID: &reference,
	}); err != nil {
		return nil, err
	}

	analysis := &domain.Analysis{
		ID:           analysisID,
		FacilityID:   req.FacilityID,
		AnalysisType: req.AnalysisType,
		Price:        price.Price,
		Currency:     price.Currency,
	}

	report, interpretErr := s.interpreter.Interpret(ctx, req.AnalysisType, req.Input)
	if interpretErr != nil {
		// The charge already landed; give it back before reporting failure.
		if _, refundErr := s.wallet.Credit(ctx, walletdomain.MutationRequest{
			FacilityID:  req.FacilityID,
			Kind:        walletdomain.KindRefund,
			Amount:      price.Price,
			Description: description + " refund",
			ReferenceID: &reference,
		}); refundErr != nil {
			s.log.Error("refund failed after interpretation error",
				zap.String("facility_id", req.FacilityID.String()),
				zap.String("reference", reference),
				zap.Error(refundErr),
			)
		}
		msg := interpretErr.Error()
		if len(msg) > 512 {
			msg = msg[:512]
		}
		analysis.Status = domain.AnalysisStatusFailed
		analysis.Error = &msg
		if err := s.db.WithContext(ctx).Create(analysis).Error; err != nil {
			return nil, err
		}
		return analysis, fmt.Errorf("%w: %v", domain.ErrInterpretation, interpretErr)
	}

	analysis.Status = domain.AnalysisStatusCompleted
	analysis.Report = datatypes.JSON(report)
	if err := s.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return nil, err
	}

	s.log.Info("analysis charged",
		zap.String("facility_id", req.FacilityID.String()),
		zap.String("analysis_type", string(req.AnalysisType)),
		zap.String("price", price.Price.StringFixed(2)),
	)
	return analysis, nil
}

func (s *Service) List(ctx context.Context, facilityID snowflake.ID) ([]domain.Analysis, error) {
	var items []domain.Analysis
	err := s.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
