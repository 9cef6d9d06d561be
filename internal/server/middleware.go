package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const (
	HeaderFacility       = "X-Facility-ID"
	contextFacilityIDKey = "facility_id"
)

// FacilityContext resolves the calling facility from the request header.
// Authentication proper lives upstream; this only binds the identity the
// edge already verified.
func FacilityContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderFacility))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(contextFacilityIDKey, id)
		c.Next()
	}
}

func facilityID(c *gin.Context) (snowflake.ID, bool) {
	v, ok := c.Get(contextFacilityIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(snowflake.ID)
	return id, ok
}
