package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulseware/platform/internal/payment/gateway"
)

// PaystackWebhook reads the raw body before any binding so the signature is
// verified over exactly the bytes the gateway signed. A non-2xx response
// invites the gateway to retry the delivery.
func (s *Server) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}

	headers := map[string]string{
		gateway.SignatureHeader: c.GetHeader(gateway.SignatureHeader),
	}

	if _, err := s.paymentSvc.Ingest(c.Request.Context(), body, headers); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
