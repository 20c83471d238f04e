package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invision-server/internal/domain/connector"
	"invision-server/internal/domain/organization"
	"invision-server/internal/domain/workflow"
	"invision-server/internal/infrastructure/metrics"
	"invision-server/internal/interfaces/httpserver/dto"
	"invision-server/internal/interfaces/httpserver/responses"
	"invision-server/internal/utils/functional"
)

// ConnectorHandler exposes HTTP entrypoints for connector state.
type ConnectorHandler struct {
	connectors    *connector.Service
	workflows     *workflow.Service
	organizations *organization.Service
	log           zerolog.Logger
}

// NewConnectorHandler constructs the handler.
func NewConnectorHandler(connectors *connector.Service, workflows *workflow.Service, organizations *organization.Service, log zerolog.Logger) *ConnectorHandler {
	return &ConnectorHandler{
		connectors:    connectors,
		workflows:     workflows,
		organizations: organizations,
		log:           log.With().Str("handler", "connector").Logger(),
	}
}

// ListAccounts handles GET /v1/connectors/accounts
// @Summary List the caller's connected accounts
// @Tags Connectors
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/connectors/accounts [get]
func (h *ConnectorHandler) ListAccounts(c *gin.Context) {
	identity, _, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	start := time.Now()
	accounts, err := h.connectors.ConnectedAccounts(c.Request.Context(), identity.UserID)
	metrics.RecordConnectorRequest("accounts", time.Since(start).Seconds())
	if err != nil {
		responses.HandleError(c, err, "failed to list connected accounts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": functional.Map(accounts, dto.AccountFromDomain),
	})
}

// ListToolkits handles GET /v1/connectors/toolkits
// @Summary List the toolkits required by the caller's workflows
// @Tags Connectors
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/connectors/toolkits [get]
func (h *ConnectorHandler) ListToolkits(c *gin.Context) {
	identity, organizationID, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	definitions, err := h.workflows.ListAccessible(c.Request.Context(), workflow.Access{
		OrganizationID: organizationID,
		UserID:         identity.UserID,
		Role:           identity.Role,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to list workflows")
		return
	}

	allowed := make(map[string]bool)
	for _, definition := range definitions {
		for _, slug := range definition.RequiredConnectors {
			allowed[connector.NormalizeSlug(slug)] = true
		}
	}

	start := time.Now()
	toolkits, err := h.connectors.Toolkits(c.Request.Context())
	metrics.RecordConnectorRequest("toolkits", time.Since(start).Seconds())
	if err != nil {
		responses.HandleError(c, err, "failed to list toolkits")
		return
	}

	// Only toolkits some accessible workflow actually needs are offered.
	relevant := functional.Filter(toolkits, func(t connector.Toolkit) bool {
		return allowed[connector.NormalizeSlug(t.Slug)]
	})

	c.JSON(http.StatusOK, gin.H{
		"data": functional.Map(relevant, dto.ToolkitFromDomain),
	})
}

// Authorize handles POST /v1/connectors/authorize
// @Summary Start the connection flow for a toolkit
// @Tags Connectors
// @Accept json
// @Produce json
// @Param request body dto.AuthorizeConnectorRequest true "Authorize request"
// @Success 200 {object} map[string]string
// @Router /v1/connectors/authorize [post]
func (h *ConnectorHandler) Authorize(c *gin.Context) {
	identity, _, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	var req dto.AuthorizeConnectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	redirectURL, err := h.connectors.Authorize(c.Request.Context(), identity.UserID, req.Toolkit)
	metrics.RecordConnectorRequest("authorize", time.Since(start).Seconds())
	if err != nil {
		responses.HandleError(c, err, "failed to start connector authorization")
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirectUrl": redirectURL})
}

// DeleteAccount handles DELETE /v1/connectors/accounts/:account_id
// @Summary Disconnect a connected account
// @Tags Connectors
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 200 {object} map[string]string
// @Router /v1/connectors/accounts/{account_id} [delete]
func (h *ConnectorHandler) DeleteAccount(c *gin.Context) {
	identity, _, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	start := time.Now()
	err := h.connectors.DeleteAccount(c.Request.Context(), identity.UserID, c.Param("account_id"))
	metrics.RecordConnectorRequest("delete_account", time.Since(start).Seconds())
	if err != nil {
		responses.HandleError(c, err, "failed to disconnect account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// Refresh handles POST /v1/connectors/accounts/refresh
// @Summary Drop the cached account list after a new connection completes
// @Tags Connectors
// @Produce json
// @Success 200 {object} map[string]string
// @Router /v1/connectors/accounts/refresh [post]
func (h *ConnectorHandler) Refresh(c *gin.Context) {
	identity, _, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	h.connectors.InvalidateAccounts(identity.UserID)
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}
