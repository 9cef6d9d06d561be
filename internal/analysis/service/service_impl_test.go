package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/pulseware/platform/internal/analysis/domain"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	auditrepo "github.com/pulseware/platform/internal/audit/repository"
	auditservice "github.com/pulseware/platform/internal/audit/service"
	"github.com/pulseware/platform/internal/config"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	pricingservice "github.com/pulseware/platform/internal/pricing/service"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	walletservice "github.com/pulseware/platform/internal/wallet/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeInterpreter struct {
	report []byte
	err    error
	calls  int
}

func (f *fakeInterpreter) Interpret(_ context.Context, _ pricingdomain.AnalysisType, _ map[string]any) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fixture struct {
	svc         domain.Service
	wallet      walletdomain.Service
	interpreter *fakeInterpreter
	db          *gorm.DB
	node        *snowflake.Node
}

func newFixture(t *testing.T, interpreter *fakeInterpreter) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&walletdomain.Wallet{},
		&walletdomain.LedgerEntry{},
		&pricingdomain.PricingConfig{},
		&pricingdomain.CountryPricing{},
		&auditdomain.AuditLog{},
		&domain.Analysis{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	cfg := config.Config{DefaultCurrency: "NGN"}

	wallet := walletservice.NewService(walletservice.Params{DB: gdb, Log: log, GenID: node, Cfg: cfg})
	audit := auditservice.NewService(auditservice.Params{DB: gdb, Log: log, GenID: node, Repo: auditrepo.Provide()})
	pricing := pricingservice.NewService(pricingservice.Params{DB: gdb, Log: log, GenID: node, Cfg: cfg, Audit: audit})

	svc := NewService(Params{
		DB:          gdb,
		Log:         log,
		GenID:       node,
		Wallet:      wallet,
		Pricing:     pricing,
		Interpreter: interpreter,
	})
	return &fixture{svc: svc, wallet: wallet, interpreter: interpreter, db: gdb, node: node}
}

func (f *fixture) fund(t *testing.T, facilityID snowflake.ID, amount string) {
	t.Helper()
	_, err := f.wallet.Credit(context.Background(), walletdomain.MutationRequest{
		FacilityID:  facilityID,
		Kind:        walletdomain.KindTopup,
		Amount:      decimal.RequireFromString(amount),
		Description: "test funding",
	})
	require.NoError(t, err)
}

func TestCharge_DebitsResolvedPrice(t *testing.T) {
	f := newFixture(t, &fakeInterpreter{report: []byte(`{"verdict":"normal"}`)})
	ctx := context.Background()
	facilityID := f.node.Generate()
	f.fund(t, facilityID, "1000.00")

	analysis, err := f.svc.Charge(ctx, domain.ChargeRequest{
		FacilityID:   facilityID,
		AnalysisType: pricingdomain.AnalysisTypeStandard,
		Country:      "NG",
		Input:        map[string]any{"sample": "cbc"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisStatusCompleted, analysis.Status)
	assert.Equal(t, "250.00", analysis.Price.StringFixed(2))
	assert.JSONEq(t, `{"verdict":"normal"}`, string(analysis.Report))

	wallet, err := f.wallet.Balance(ctx, facilityID)
	require.NoError(t, err)
	assert.Equal(t, "750.00", wallet.Balance.StringFixed(2))
}

func TestCharge_InsufficientBalanceSkipsInterpreter(t *testing.T) {
	f := newFixture(t, &fakeInterpreter{report: []byte(`{}`)})
	ctx := context.Background()
	facilityID := f.node.Generate()
	f.fund(t, facilityID, "100.00")

	_, err := f.svc.Charge(ctx, domain.ChargeRequest{
		FacilityID:   facilityID,
		AnalysisType: pricingdomain.AnalysisTypeStandard,
	})
	assert.ErrorIs(t, err, walletdomain.ErrInsufficientBalance)
	assert.Zero(t, f.interpreter.calls)

	wallet, err := f.wallet.Balance(ctx, facilityID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", wallet.Balance.StringFixed(2))

	var count int64
	require.NoError(t, f.db.Model(&domain.Analysis{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCharge_InterpreterFailureRefunds(t *testing.T) {
	f := newFixture(t, &fakeInterpreter{err: errors.New("model timeout")})
	ctx := context.Background()
	facilityID := f.node.Generate()
	f.fund(t, facilityID, "500.00")

	analysis, err := f.svc.Charge(ctx, domain.ChargeRequest{
		FacilityID:   facilityID,
		AnalysisType: pricingdomain.AnalysisTypeImage,
	})
	assert.ErrorIs(t, err, domain.ErrInterpretation)
	require.NotNil(t, analysis)
	assert.Equal(t, domain.AnalysisStatusFailed, analysis.Status)

	wallet, err := f.wallet.Balance(ctx, facilityID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", wallet.Balance.StringFixed(2))

	// Both the deduction and the refund stay in the ledger.
	var kinds []string
	require.NoError(t, f.db.Model(&walletdomain.LedgerEntry{}).
		Where("facility_id = ? AND kind IN ?", facilityID, []string{"deduction", "refund"}).
		Order("id ASC").
		Pluck("kind", &kinds).Error)
	assert.Equal(t, []string{"deduction", "refund"}, kinds)
}

func TestCharge_RejectsUnknownType(t *testing.T) {
	f := newFixture(t, &fakeInterpreter{})

	_, err := f.svc.Charge(context.Background(), domain.ChargeRequest{
		FacilityID:   f.node.Generate(),
		AnalysisType: pricingdomain.AnalysisType("genomic"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
