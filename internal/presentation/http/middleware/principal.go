package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/application/service"
)

const principalKey = "principal"

// SetPrincipal stores the authenticated caller in the gin context
func SetPrincipal(c *gin.Context, principal service.Principal) {
	c.Set(principalKey, principal)
}

// GetPrincipal retrieves the authenticated caller from gin context. The zero
// Principal is returned for anonymous requests.
func GetPrincipal(c *gin.Context) service.Principal {
	value, exists := c.Get(principalKey)
	if !exists {
		return service.Principal{}
	}
	principal, ok := value.(service.Principal)
	if !ok {
		return service.Principal{}
	}
	return principal
}

// GetUserID retrieves the authenticated user ID from gin context
func GetUserID(c *gin.Context) uuid.UUID {
	return GetPrincipal(c).UserID
}
