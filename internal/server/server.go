package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pulseware/platform/internal/analysis"
	analysisdomain "github.com/pulseware/platform/internal/analysis/domain"
	"github.com/pulseware/platform/internal/audit"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	"github.com/pulseware/platform/internal/config"
	"github.com/pulseware/platform/internal/payment"
	paymentdomain "github.com/pulseware/platform/internal/payment/domain"
	"github.com/pulseware/platform/internal/pricing"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	"github.com/pulseware/platform/internal/providers/ai"
	"github.com/pulseware/platform/internal/ratelimit"
	"github.com/pulseware/platform/internal/signup"
	signupdomain "github.com/pulseware/platform/internal/signup/domain"
	"github.com/pulseware/platform/internal/topup"
	topupdomain "github.com/pulseware/platform/internal/topup/domain"
	"github.com/pulseware/platform/internal/wallet"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	wallet.Module,
	topup.Module,
	payment.Module,
	signup.Module,
	pricing.Module,
	ai.Module,
	analysis.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	signupSvc       signupdomain.Service
	walletSvc       walletdomain.Service
	topupSvc        topupdomain.Service
	paymentSvc      paymentdomain.Service
	pricingSvc      pricingdomain.Service
	analysisSvc     analysisdomain.Service
	auditSvc        auditdomain.Service
	analysisLimiter *ratelimit.AnalysisLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	SignupSvc       signupdomain.Service
	WalletSvc       walletdomain.Service
	TopupSvc        topupdomain.Service
	PaymentSvc      paymentdomain.Service
	PricingSvc      pricingdomain.Service
	AnalysisSvc     analysisdomain.Service
	AuditSvc        auditdomain.Service
	AnalysisLimiter *ratelimit.AnalysisLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("server"),
		genID:           p.GenID,
		signupSvc:       p.SignupSvc,
		walletSvc:       p.WalletSvc,
		topupSvc:        p.TopupSvc,
		paymentSvc:      p.PaymentSvc,
		pricingSvc:      p.PricingSvc,
		analysisSvc:     p.AnalysisSvc,
		auditSvc:        p.AuditSvc,
		analysisLimiter: p.AnalysisLimiter,
	}

	svc.registerRoutes()

	return svc
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/signup", s.Signup)
	v1.POST("/webhooks/paystack", s.PaystackWebhook)

	authed := v1.Group("")
	authed.Use(FacilityContext())
	{
		authed.POST("/topups", s.InitiateTopUp)
		authed.POST("/topups/:id/cancel", s.CancelTopUp)
		authed.GET("/topups", s.ListTopUps)

		authed.GET("/wallet", s.WalletBalance)
		authed.GET("/wallet/entries", s.WalletEntries)

		authed.POST("/analyses", s.CreateAnalysis)
		authed.GET("/analyses", s.ListAnalyses)

		authed.GET("/pricing/:type", s.ResolvePricing)
		authed.PUT("/pricing/:type", s.UpdatePricing)

		authed.GET("/audit-logs", s.ListAuditLogs)
	}
}
