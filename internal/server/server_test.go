package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	analysisdomain "github.com/pulseware/platform/internal/analysis/domain"
	analysisservice "github.com/pulseware/platform/internal/analysis/service"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	auditrepo "github.com/pulseware/platform/internal/audit/repository"
	auditservice "github.com/pulseware/platform/internal/audit/service"
	"github.com/pulseware/platform/internal/config"
	facilitydomain "github.com/pulseware/platform/internal/facility/domain"
	"github.com/pulseware/platform/internal/payment/gateway"
	paymentservice "github.com/pulseware/platform/internal/payment/service"
	paymentdomain "github.com/pulseware/platform/internal/payment/domain"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	pricingservice "github.com/pulseware/platform/internal/pricing/service"
	signuppkg "github.com/pulseware/platform/internal/signup"
	signupdomain "github.com/pulseware/platform/internal/signup/domain"
	topupdomain "github.com/pulseware/platform/internal/topup/domain"
	topupservice "github.com/pulseware/platform/internal/topup/service"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	walletservice "github.com/pulseware/platform/internal/wallet/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "sk_test_server"

type stubInterpreter struct{}

func (stubInterpreter) Interpret(_ context.Context, _ pricingdomain.AnalysisType, _ map[string]any) ([]byte, error) {
	return []byte(`{"verdict":"normal"}`), nil
}

type testEnv struct {
	server *Server
	engine *gin.Engine
	db     *gorm.DB
	node   *snowflake.Node
	topups topupdomain.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
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
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	cfg := config.Config{
		DefaultCurrency: "NGN",
		GatewaySecret:   testSecret,
		Capabilities:    config.Capabilities{Bonuses: true},
	}

	walletSvc := walletservice.NewService(walletservice.Params{DB: gdb, Log: log, GenID: node, Cfg: cfg})
	auditSvc := auditservice.NewService(auditservice.Params{DB: gdb, Log: log, GenID: node, Repo: auditrepo.Provide()})
	topupSvc := topupservice.NewService(topupservice.Params{DB: gdb, Log: log, GenID: node, Cfg: cfg})
	signupSvc := signuppkg.NewService(signuppkg.Params{DB: gdb, Log: log, GenID: node, Cfg: cfg, WalletSvc: walletSvc, AuditSvc: auditSvc})
	pricingSvc := pricingservice.NewService(pricingservice.Params{DB: gdb, Log: log, GenID: node, Cfg: cfg, Audit: auditSvc})
	paymentSvc := paymentservice.NewService(paymentservice.Params{
		DB: gdb, Log: log, GenID: node,
		Adapter: gateway.NewPaystack(testSecret),
		Wallet:  walletSvc,
		Audit:   auditSvc,
	})
	analysisSvc := analysisservice.NewService(analysisservice.Params{
		DB: gdb, Log: log, GenID: node,
		Wallet: walletSvc, Pricing: pricingSvc, Interpreter: stubInterpreter{},
	})

	engine := NewEngine()
	srv := NewServer(ServerParams{
		Gin:         engine,
		Cfg:         cfg,
		DB:          gdb,
		Log:         log,
		GenID:       node,
		SignupSvc:   signupSvc,
		WalletSvc:   walletSvc,
		TopupSvc:    topupSvc,
		PaymentSvc:  paymentSvc,
		PricingSvc:  pricingSvc,
		AnalysisSvc: analysisSvc,
		AuditSvc:    auditSvc,
	})
	return &testEnv{server: srv, engine: engine, db: gdb, node: node, topups: topupSvc}
}

func (e *testEnv) request(t *testing.T, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func signBody(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignupEndpoint_CreatesFacility(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/v1/signup",
		[]byte(`{"name":"Mercy Clinic","email":"ops@mercy.example","country":"NG"}`), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		FacilityID   string `json:"facility_id"`
		ReferralCode string `json:"referral_code"`
		SignupBonus  string `json:"signup_bonus"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.FacilityID)
	assert.Len(t, resp.ReferralCode, 8)
	assert.Equal(t, "50.00", resp.SignupBonus)
}

func TestSignupEndpoint_DuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	body := []byte(`{"name":"Mercy Clinic","email":"dup@mercy.example","country":"NG"}`)

	rec := env.request(t, http.MethodPost, "/v1/signup", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(t, http.MethodPost, "/v1/signup", body, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWebhookEndpoint_StatusCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	facilityID := env.node.Generate()

	topup, err := env.topups.Initiate(ctx, topupdomain.InitiateRequest{
		FacilityID: facilityID,
		Amount:     decimal.RequireFromString("200.00"),
	})
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(
		`{"event":"charge.success","data":{"reference":%q,"status":"success","amount":20000,"currency":"NGN"}}`,
		topup.Reference,
	))

	// missing signature
	rec := env.request(t, http.MethodPost, "/v1/webhooks/paystack", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// invalid signature
	rec = env.request(t, http.MethodPost, "/v1/webhooks/paystack", body, map[string]string{
		gateway.SignatureHeader: "deadbeef",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid delivery
	rec = env.request(t, http.MethodPost, "/v1/webhooks/paystack", body, map[string]string{
		gateway.SignatureHeader: signBody(body),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	// replay still acknowledged
	rec = env.request(t, http.MethodPost, "/v1/webhooks/paystack", body, map[string]string{
		gateway.SignatureHeader: signBody(body),
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// unknown reference is still acknowledged, no wallet mutation
	bad := []byte(`{"event":"charge.success","data":{"reference":"missing","status":"success","amount":100,"currency":"NGN"}}`)
	rec = env.request(t, http.MethodPost, "/v1/webhooks/paystack", bad, map[string]string{
		gateway.SignatureHeader: signBody(bad),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	var entries int64
	require.NoError(t, env.db.Model(&walletdomain.LedgerEntry{}).
		Where("reference_id = ?", "missing").Count(&entries).Error)
	assert.Zero(t, entries)
}

func TestWalletEndpoints_RequireFacilityHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/v1/wallet", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.request(t, http.MethodGet, "/v1/wallet", nil, map[string]string{
		HeaderFacility: "not-a-snowflake",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTopUpEndpoints_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	headers := map[string]string{HeaderFacility: env.node.Generate().String()}

	rec := env.request(t, http.MethodPost, "/v1/topups", []byte(`{"amount":"150.00"}`), headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created topupdomain.TopUp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.request(t, http.MethodPost, "/v1/topups/"+created.ID.String()+"/cancel", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// cancelling again conflicts
	rec = env.request(t, http.MethodPost, "/v1/topups/"+created.ID.String()+"/cancel", nil, headers)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAnalysisEndpoint_InsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	headers := map[string]string{HeaderFacility: env.node.Generate().String()}

	rec := env.request(t, http.MethodPost, "/v1/analyses",
		[]byte(`{"analysis_type":"standard","country":"NG","input":{"hb":12.1}}`), headers)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPricingEndpoints(t *testing.T) {
	env := newTestEnv(t)
	headers := map[string]string{HeaderFacility: env.node.Generate().String()}

	rec := env.request(t, http.MethodGet, "/v1/pricing/standard?country=NG", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	var resolved pricingdomain.ResolvedPrice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.Equal(t, "250", resolved.Price.String())

	rec = env.request(t, http.MethodPut, "/v1/pricing/standard",
		[]byte(`{"country":"NG","price":"199.99"}`), headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.request(t, http.MethodGet, "/v1/pricing/standard?country=NG", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.Equal(t, "199.99", resolved.Price.String())

	rec = env.request(t, http.MethodGet, "/v1/pricing/genomic", nil, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
