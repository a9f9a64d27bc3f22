// internal/interfaces/http/handlers/common.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/supplement-store-backend/internal/pkg/apperrors"
)

// respondError maps any error to its HTTP status and public message
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.StatusCode(err), gin.H{
		"error": apperrors.PublicMessage(err),
	})
}

// parseUintParam parses a positive integer path parameter
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
