package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/pulseware/platform/internal/audit/domain"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	"github.com/shopspring/decimal"
)

func (s *Server) ResolvePricing(c *gin.Context) {
	analysisType := pricingdomain.AnalysisType(strings.TrimSpace(c.Param("type")))
	country := strings.TrimSpace(c.Query("country"))

	resolved, err := s.pricingSvc.Resolve(c.Request.Context(), analysisType, country)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolved)
}

type updatePricingRequest struct {
	Country string `json:"country"`
	Price   string `json:"price"`
}

func (s *Server) UpdatePricing(c *gin.Context) {
	id, ok := facilityID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		AbortWithError(c, newValidationError("price", "invalid_price", "invalid price"))
		return
	}

	resolved, err := s.pricingSvc.UpdatePrice(c.Request.Context(), pricingdomain.UpdatePriceRequest{
		AnalysisType: pricingdomain.AnalysisType(strings.TrimSpace(c.Param("type"))),
		Country:      strings.TrimSpace(req.Country),
		Price:        price,
		Actor:        auditdomain.ActorTypeFacility + ":" + id.String(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolved)
}
