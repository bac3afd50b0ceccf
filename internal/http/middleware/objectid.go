package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/domain"
)

// ValidObjectID rejects the request with 404 unless every named path
// parameter is a 24-hex identifier. With no names it checks "id".
func ValidObjectID(params ...string) gin.HandlerFunc {
	if len(params) == 0 {
		params = []string{"id"}
	}
	return func(c *gin.Context) {
		for _, p := range params {
			if !domain.IsObjectID(c.Param(p)) {
				Abort(c, apperror.NotFound())
				return
			}
		}
		c.Next()
	}
}
