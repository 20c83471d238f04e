package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invision-server/internal/domain/organization"
	"invision-server/internal/infrastructure/auth"
	"invision-server/internal/interfaces/httpserver/dto"
	"invision-server/internal/interfaces/httpserver/responses"
	"invision-server/internal/utils/functional"
	"invision-server/internal/utils/platformerrors"
)

// OrganizationHandler exposes HTTP entrypoints for tenant membership.
type OrganizationHandler struct {
	organizations *organization.Service
	log           zerolog.Logger
}

// NewOrganizationHandler constructs the handler.
func NewOrganizationHandler(organizations *organization.Service, log zerolog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		organizations: organizations,
		log:           log.With().Str("handler", "organization").Logger(),
	}
}

// List handles GET /v1/organizations
// @Summary List the caller's organization memberships
// @Tags Organizations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	identity, exists := auth.IdentityFrom(c)
	if !exists || identity.UserID == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "7f4dd15c-11c6-49e5-9492-4651c161f86e")
		return
	}

	memberships, err := h.organizations.ListForUser(c.Request.Context(), identity.UserID)
	if err != nil {
		responses.HandleError(c, err, "failed to list organizations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": functional.Map(memberships, dto.MembershipFromDomain),
	})
}
