package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	analysisdomain "github.com/pulseware/platform/internal/analysis/domain"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	"go.uber.org/zap"
)

type createAnalysisRequest struct {
	AnalysisType string         `json:"analysis_type"`
	Country      string         `json:"country"`
	Input        map[string]any `json:"input"`
}

func (s *Server) CreateAnalysis(c *gin.Context) {
	id, ok := facilityID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if s.analysisLimiter.Enabled() {
		result, err := s.analysisLimiter.Allow(c.Request.Context(), id)
		if err != nil {
			// Redis trouble should not block paid work.
			s.log.Warn("analysis rate limit check failed", zap.Error(err))
		} else if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", result.RetryAfter.Round(time.Second).String())
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
	}

	var req createAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	analysis, err := s.analysisSvc.Charge(c.Request.Context(), analysisdomain.ChargeRequest{
		FacilityID:   id,
		AnalysisType: pricingdomain.AnalysisType(strings.TrimSpace(req.AnalysisType)),
		Country:      strings.TrimSpace(req.Country),
		Input:        req.Input,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, analysis)
}

func (s *Server) ListAnalyses(c *gin.Context) {
	id, ok := facilityID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	analyses, err := s.analysisSvc.List(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analyses": analyses})
}
