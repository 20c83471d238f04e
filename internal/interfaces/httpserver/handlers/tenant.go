package handlers

import (
	"github.com/gin-gonic/gin"

	"invision-server/internal/domain/organization"
	"invision-server/internal/infrastructure/auth"
	"invision-server/internal/interfaces/httpserver/responses"
	"invision-server/internal/utils/platformerrors"
)

// resolveTenant extracts the caller identity and resolves the organization
// the request operates in. On failure the response is already written and
// ok is false.
func resolveTenant(c *gin.Context, organizations *organization.Service) (auth.Identity, string, bool) {
	identity, exists := auth.IdentityFrom(c)
	if !exists || identity.UserID == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "5c4d2133-aca0-4437-b5b7-112d74e3fb0a")
		return auth.Identity{}, "", false
	}

	organizationID, err := organizations.ResolveActive(c.Request.Context(), identity.UserID, identity.OrganizationID)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve organization")
		return auth.Identity{}, "", false
	}

	return identity, organizationID, true
}
