package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/maglo-api/internal/application/service"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/response"
)

// Authenticator resolves a bearer access token to the calling principal
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (service.Principal, error)
}

// AuthMiddleware creates a JWT authentication middleware. Expired, malformed
// and signed-out tokens are all rejected with 401.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		SetPrincipal(c, principal)

		c.Next()
	}
}
