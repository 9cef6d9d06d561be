package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	walletdomain "github.com/pulseware/platform/internal/wallet/domain"
	"github.com/pulseware/platform/pkg/db/pagination"
)

func (s *Server) WalletBalance(c *gin.Context) {
	id, ok := facilityID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	wallet, err := s.walletSvc.Balance(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

type listEntriesQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
	Kind      string `form:"kind"`
}

func (s *Server) WalletEntries(c *gin.Context) {
	id, ok := facilityID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query listEntriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	resp, err := s.walletSvc.Entries(c.Request.Context(), walletdomain.ListEntriesRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		FacilityID: id,
		Kind:       walletdomain.EntryKind(strings.TrimSpace(query.Kind)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
