package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "auth_identity"

// Identity is the authenticated caller as seen by the handlers. The
// organization is the caller's claimed organization and still has to be
// checked against an actual membership before use.
type Identity struct {
	UserID         string
	OrganizationID string
	Role           string
}

// SetIdentity stores the identity on the gin context.
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(identityKey, identity)
}

// IdentityFrom returns the identity stored by the auth middleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

func identityFromClaims(claims jwt.MapClaims) Identity {
	identity := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.UserID = sub
	}
	if org, ok := claims["org_id"].(string); ok {
		identity.OrganizationID = org
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = role
	}
	return identity
}

// devIdentity derives a caller identity from headers for local development
// when auth is disabled.
func devIdentity(c *gin.Context) Identity {
	identity := Identity{
		UserID:         c.GetHeader("X-User-Id"),
		OrganizationID: c.GetHeader("X-Organization-Id"),
		Role:           c.GetHeader("X-User-Role"),
	}
	if identity.UserID == "" {
		identity.UserID = "dev-user"
	}
	if identity.Role == "" {
		identity.Role = "member"
	}
	return identity
}
