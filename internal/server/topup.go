package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	topupdomain "github.com/pulseware/platform/internal/topup/domain"
	"github.com/shopspring/decimal"
)

type initiateTopUpRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) InitiateTopUp(c *gin.Context) {
	id, ok := facilityID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req initiateTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "invalid amount"))
		return
	}

	topup, err := s.topupSvc.Initiate(c.Request.Context(), topupdomain.InitiateRequest{
		FacilityID: id,
		Amount:     amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, topup)
}

func (s *Server) CancelTopUp(c *gin.Context) {
	id, ok := facilityID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	topupID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid top-up id"))
		return
	}

	topup, err := s.topupSvc.Cancel(c.Request.Context(), id, topupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, topup)
}

func (s *Server) ListTopUps(c *gin.Context) {
	id, ok := facilityID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	topups, err := s.topupSvc.List(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topups": topups})
}
