package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pulseware/platform/internal/config"
	"github.com/pulseware/platform/internal/metrics"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	"github.com/pulseware/platform/pkg/db"
	"github.com/pulseware/platform/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type direction int

const (
	directionCredit direction = iota
	directionDebit
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

func NewService(p Params) walletdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("wallet.service"),
		genID:    p.GenID,
		currency: p.Cfg.DefaultCurrency,
	}
}

func (s *Service) Credit(ctx context.Context, req walletdomain.MutationRequest) (*walletdomain.LedgerEntry, error) {
	var entry *walletdomain.LedgerEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.apply(ctx, tx, directionCredit, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) CreditTx(ctx context.Context, tx *gorm.DB, req walletdomain.MutationRequest) (*walletdomain.LedgerEntry, error) {
	return s.apply(ctx, tx, directionCredit, req)
}

func (s *Service) Debit(ctx context.Context, req walletdomain.MutationRequest) (*walletdomain.LedgerEntry, error) {
	var entry *walletdomain.LedgerEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.apply(ctx, tx, directionDebit, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) DebitTx(ctx context.Context, tx *gorm.DB, req walletdomain.MutationRequest) (*walletdomain.LedgerEntry, error) {
	return s.apply(ctx, tx, directionDebit, req)
}

// apply is the single lock-then-mutate-then-record path shared by every
// wallet mutation: lock the wallet row, validate, compute the new balance,
// write the wallet and the ledger entry in the same transaction.
func (s *Service) apply(ctx context.Context, tx *gorm.DB, dir direction, req walletdomain.MutationRequest) (*walletdomain.LedgerEntry, error) {
	if req.FacilityID == 0 {
		return nil, walletdomain.ErrInvalidFacility
	}
	if !req.Amount.IsPositive() {
		return nil, walletdomain.ErrInvalidAmount
	}
	if err := validateKind(dir, req.Kind); err != nil {
		return nil, err
	}

	if dir == directionCredit {
		if err := s.EnsureTx(ctx, tx, req.FacilityID); err != nil {
			return nil, err
		}
	}

	var wallet walletdomain.Wallet
	err := db.LockForUpdate(tx.WithContext(ctx)).
		Where("facility_id = ?", req.FacilityID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A debit against a wallet that was never funded is a plain
			// coverage failure, not an infrastructure error.
			if dir == directionDebit {
				return nil, walletdomain.ErrInsufficientBalance
			}
			return nil, walletdomain.ErrWalletNotFound
		}
		return nil, err
	}

	before := wallet.Balance
	var after decimal.Decimal
	if dir == directionDebit {
		if before.LessThan(req.Amount) {
			return nil, walletdomain.ErrInsufficientBalance
		}
		after = before.Sub(req.Amount)
	} else {
		after = before.Add(req.Amount)
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).
		Model(&walletdomain.Wallet{}).
		Where("id = ?", wallet.ID).
		Updates(map[string]any{"balance": after, "updated_at": now}).Error; err != nil {
		return nil, err
	}

	entry := &walletdomain.LedgerEntry{
		ID:            s.genID.Generate(),
		FacilityID:    req.FacilityID,
		Kind:          req.Kind,
		Amount:        req.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   req.Description,
		ReferenceID:   req.ReferenceID,
		Status:        walletdomain.EntryStatusCompleted,
		Metadata:      datatypes.JSONMap(req.Metadata),
		CreatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}

	metrics.LedgerEntriesTotal.WithLabelValues(string(req.Kind)).Inc()
	s.log.Info("wallet mutated",
		zap.String("facility_id", req.FacilityID.String()),
		zap.String("kind", string(req.Kind)),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("balance_after", after.StringFixed(2)),
	)

	return entry, nil
}

func (s *Service) EnsureTx(ctx context.Context, tx *gorm.DB, facilityID snowflake.ID) error {
	if facilityID == 0 {
		return walletdomain.ErrInvalidFacility
	}
	now := time.Now().UTC()
	return tx.WithContext(ctx).Exec(
		`INSERT INTO wallets (id, facility_id, balance, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (facility_id) DO NOTHING`,
		s.genID.Generate(),
		facilityID,
		decimal.Zero,
		s.currency,
		now,
		now,
	).Error
}

func (s *Service) Balance(ctx context.Context, facilityID snowflake.ID) (*walletdomain.Wallet, error) {
	if facilityID == 0 {
		return nil, walletdomain.ErrInvalidFacility
	}
	var wallet walletdomain.Wallet
	err := s.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, walletdomain.ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (s *Service) Entries(ctx context.Context, req walletdomain.ListEntriesRequest) (*walletdomain.ListEntriesResponse, error) {
	if req.FacilityID == 0 {
		return nil, walletdomain.ErrInvalidFacility
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	// Snowflake IDs are time-ordered, so the ID doubles as the cursor.
	query := s.db.WithContext(ctx).
		Where("facility_id = ?", req.FacilityID).
		Order("id DESC").
		Limit(pageSize + 1)
	if req.Kind != "" {
		query = query.Where("kind = ?", req.Kind)
	}
	if token := req.PageToken; token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		query = query.Where("id < ?", id)
	}

	var items []*walletdomain.LedgerEntry
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *walletdomain.LedgerEntry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]walletdomain.LedgerEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, *item)
	}

	return &walletdomain.ListEntriesResponse{
		PageInfo: *pageInfo,
		Entries:  entries,
	}, nil
}

func validateKind(dir direction, kind walletdomain.EntryKind) error {
	switch dir {
	case directionDebit:
		if kind == walletdomain.KindDeduction {
			return nil
		}
	default:
		switch kind {
		case walletdomain.KindTopup, walletdomain.KindRefund, walletdomain.KindBonus, walletdomain.KindAdjustment:
			return nil
		}
	}
	return walletdomain.ErrInvalidKind
}
