package signup

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	auditrepo "github.com/pulseware/platform/internal/audit/repository"
	auditservice "github.com/pulseware/platform/internal/audit/service"
	"github.com/pulseware/platform/internal/config"
	facilitydomain "github.com/pulseware/platform/internal/facility/domain"
	"github.com/pulseware/platform/internal/signup/domain"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	walletservice "github.com/pulseware/platform/internal/wallet/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, caps config.Capabilities) (domain.Service, walletdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&facilitydomain.Facility{},
		&walletdomain.Wallet{},
		&walletdomain.LedgerEntry{},
		&domain.Referral{},
		&domain.BonusConfig{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	cfg := config.Config{DefaultCurrency: "NGN", Capabilities: caps}

	wallet := walletservice.NewService(walletservice.Params{DB: gdb, Log: log, GenID: node, Cfg: cfg})
	audit := auditservice.NewService(auditservice.Params{DB: gdb, Log: log, GenID: node, Repo: auditrepo.Provide()})
	svc := NewService(Params{DB: gdb, Log: log, GenID: node, Cfg: cfg, WalletSvc: wallet, AuditSvc: audit})
	return svc, wallet, gdb
}

func TestSignup_CreatesFacilityWalletAndBonus(t *testing.T) {
	svc, wallet, gdb := newTestService(t, config.Capabilities{Bonuses: true})
	ctx := context.Background()

	result, err := svc.Signup(ctx, domain.Request{
		Name:    "Mercy Clinic",
		Email:   "Ops@Mercy.example",
		Country: "ng",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Facility)
	assert.Equal(t, "ops@mercy.example", result.Facility.Email)
	assert.Equal(t, "NG", result.Facility.Country)
	assert.Len(t, result.Facility.ReferralCode, 8)
	assert.Equal(t, "50.00", result.SignupBonus.StringFixed(2))
	assert.False(t, result.ReferralApplied)

	balance, err := wallet.Balance(ctx, result.Facility.ID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", balance.Balance.StringFixed(2))

	var entry walletdomain.LedgerEntry
	require.NoError(t, gdb.First(&entry, "facility_id = ?", result.Facility.ID).Error)
	assert.Equal(t, walletdomain.KindBonus, entry.Kind)
	assert.Equal(t, "signup bonus", entry.Description)
}

func TestSignup_ReferralCreditsBothSides(t *testing.T) {
	svc, wallet, gdb := newTestService(t, config.Capabilities{Bonuses: true})
	ctx := context.Background()

	referrer, err := svc.Signup(ctx, domain.Request{
		Name:  "First Clinic",
		Email: "first@clinic.example",
	})
	require.NoError(t, err)

	referred, err := svc.Signup(ctx, domain.Request{
		Name:         "Second Clinic",
		Email:        "second@clinic.example",
		ReferralCode: referrer.Facility.ReferralCode,
	})
	require.NoError(t, err)
	assert.True(t, referred.ReferralApplied)
	require.NotNil(t, referred.Facility.ReferredBy)
	assert.Equal(t, referrer.Facility.ID, *referred.Facility.ReferredBy)

	referrerBalance, err := wallet.Balance(ctx, referrer.Facility.ID)
	require.NoError(t, err)
	assert.Equal(t, "75.00", referrerBalance.Balance.StringFixed(2))

	var referral domain.Referral
	require.NoError(t, gdb.First(&referral, "referred_facility_id = ?", referred.Facility.ID).Error)
	assert.Equal(t, referrer.Facility.ID, referral.ReferringFacilityID)
	assert.Equal(t, "25.00", referral.ReferralBonusAmount.StringFixed(2))
	assert.Equal(t, domain.ReferralStatusCompleted, referral.Status)
}

func TestSignup_UnknownReferralCodeIsIgnored(t *testing.T) {
	svc, _, gdb := newTestService(t, config.Capabilities{Bonuses: true})

	result, err := svc.Signup(context.Background(), domain.Request{
		Name:         "Lone Clinic",
		Email:        "lone@clinic.example",
		ReferralCode: "NOPE1234",
	})
	require.NoError(t, err)
	assert.False(t, result.ReferralApplied)
	assert.Nil(t, result.Facility.ReferredBy)

	var referrals int64
	require.NoError(t, gdb.Model(&domain.Referral{}).Count(&referrals).Error)
	assert.Zero(t, referrals)
}

func TestSignup_DuplicateEmailLeavesNoTrace(t *testing.T) {
	svc, _, gdb := newTestService(t, config.Capabilities{Bonuses: true})
	ctx := context.Background()

	_, err := svc.Signup(ctx, domain.Request{Name: "Clinic", Email: "same@clinic.example"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, domain.Request{Name: "Other Clinic", Email: "same@clinic.example"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	var facilities, wallets, entries int64
	require.NoError(t, gdb.Model(&facilitydomain.Facility{}).Count(&facilities).Error)
	require.NoError(t, gdb.Model(&walletdomain.Wallet{}).Count(&wallets).Error)
	require.NoError(t, gdb.Model(&walletdomain.LedgerEntry{}).Count(&entries).Error)
	assert.Equal(t, int64(1), facilities)
	assert.Equal(t, int64(1), wallets)
	assert.Equal(t, int64(1), entries)
}

func TestSignup_RejectsInvalidRequest(t *testing.T) {
	svc, _, _ := newTestService(t, config.Capabilities{Bonuses: true})
	ctx := context.Background()

	_, err := svc.Signup(ctx, domain.Request{Name: "", Email: "a@b.example"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Signup(ctx, domain.Request{Name: "Clinic", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSignup_BonusConfigOverridesDefaults(t *testing.T) {
	svc, wallet, gdb := newTestService(t, config.Capabilities{Bonuses: true})
	ctx := context.Background()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&domain.BonusConfig{
		ID:                   node.Generate(),
		SignupBonusEnabled:   true,
		SignupBonusAmount:    decimal.RequireFromString("80.00"),
		ReferralBonusEnabled: false,
		ReferralBonusAmount:  decimal.RequireFromString("10.00"),
	}).Error)

	result, err := svc.Signup(ctx, domain.Request{Name: "Clinic", Email: "cfg@clinic.example"})
	require.NoError(t, err)
	assert.Equal(t, "80.00", result.SignupBonus.StringFixed(2))

	balance, err := wallet.Balance(ctx, result.Facility.ID)
	require.NoError(t, err)
	assert.Equal(t, "80.00", balance.Balance.StringFixed(2))
}

func TestSignup_BonusesDisabledSkipsCredits(t *testing.T) {
	svc, wallet, gdb := newTestService(t, config.Capabilities{Bonuses: false})
	ctx := context.Background()

	result, err := svc.Signup(ctx, domain.Request{Name: "Clinic", Email: "plain@clinic.example"})
	require.NoError(t, err)
	assert.True(t, result.SignupBonus.IsZero())

	balance, err := wallet.Balance(ctx, result.Facility.ID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.IsZero())

	var entries int64
	require.NoError(t, gdb.Model(&walletdomain.LedgerEntry{}).Count(&entries).Error)
	assert.Zero(t, entries)
}

func TestSignup_WritesAuditLog(t *testing.T) {
	svc, _, gdb := newTestService(t, config.Capabilities{Bonuses: true})

	result, err := svc.Signup(context.Background(), domain.Request{Name: "Clinic", Email: "audit@clinic.example"})
	require.NoError(t, err)

	var entry auditdomain.AuditLog
	require.NoError(t, gdb.First(&entry, "action = ?", "facility.signup").Error)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, result.Facility.ID.String(), *entry.TargetID)
	assert.Equal(t, auditdomain.ActorTypeSystem, entry.ActorType)
}
