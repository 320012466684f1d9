package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/response"
	"github.com/sangkips/maglo-api/pkg/logger"
)

// Recovery turns a handler panic into a 500 in the usual response envelope.
// It must run after LoggerMiddleware so the request id is already set.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		log := logger.WithRequestID(c.GetString("request_id"))
		log.Error().
			Str("panic", fmt.Sprint(recovered)).
			Bytes("stack", debug.Stack()).
			Str("path", c.Request.URL.Path).
			Msg("recovered from panic")

		response.InternalServerError(c, "Internal server error")
		c.Abort()
	})
}
