package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	signupdomain "github.com/pulseware/platform/internal/signup/domain"
)

type signupRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Country      string `json:"country"`
	ReferralCode string `json:"referral_code"`
}

type signupResponse struct {
	FacilityID      string `json:"facility_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ReferralCode    string `json:"referral_code"`
	SignupBonus     string `json:"signup_bonus"`
	ReferralApplied bool   `json:"referral_applied"`
}

func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	result, err := s.signupSvc.Signup(c.Request.Context(), signupdomain.Request{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Country:      strings.TrimSpace(req.Country),
		ReferralCode: strings.TrimSpace(req.ReferralCode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, signupResponse{
		FacilityID:      result.Facility.ID.String(),
		Name:            result.Facility.Name,
		Email:           result.Facility.Email,
		ReferralCode:    result.Facility.ReferralCode,
		SignupBonus:     result.SignupBonus.StringFixed(2),
		ReferralApplied: result.ReferralApplied,
	})
}
