package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invision-server/internal/domain/organization"
	"invision-server/internal/domain/workflow"
	"invision-server/internal/interfaces/httpserver/dto"
	"invision-server/internal/interfaces/httpserver/responses"
	"invision-server/internal/utils/functional"
	"invision-server/internal/utils/platformerrors"
)

// WorkflowHandler exposes HTTP entrypoints for workflow definitions.
// Listing is open to every member; mutations require the admin role.
type WorkflowHandler struct {
	workflows     *workflow.Service
	organizations *organization.Service
	log           zerolog.Logger
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(workflows *workflow.Service, organizations *organization.Service, log zerolog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflows:     workflows,
		organizations: organizations,
		log:           log.With().Str("handler", "workflow").Logger(),
	}
}

// List handles GET /v1/workflows
// @Summary List workflows visible to the caller's organization
// @Tags Workflows
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"data": functional.Map(definitions, func(d *workflow.Definition) dto.WorkflowSummaryPayload {
			return dto.WorkflowSummaryFromDomain(d)
		}),
	})
}

// Create handles POST /v1/workflows
// @Summary Register a workflow definition
// @Tags Workflows
// @Accept json
// @Produce json
// @Param request body dto.CreateWorkflowRequest true "Create request"
// @Success 200 {object} dto.WorkflowPayload
// @Failure 403 {object} responses.ErrorResponse
// @Router /v1/workflows [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	definition, err := h.workflows.CreateDefinition(c.Request.Context(), workflow.CreateDefinitionInput{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		FlowID:               req.FlowID,
		Tweaks:               req.Tweaks,
		RequiredConnectors:   req.RequiredConnectors,
		AllowedOrganizations: req.AllowedOrganizations,
		AllowedRoles:         req.AllowedRoles,
		AllowedUsers:         req.AllowedUsers,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to create workflow")
		return
	}

	c.JSON(http.StatusOK, dto.WorkflowFromDomain(definition))
}

// Get handles GET /v1/workflows/:workflow_id
// @Summary Get a workflow definition
// @Tags Workflows
// @Produce json
// @Param workflow_id path string true "Workflow ID"
// @Success 200 {object} dto.WorkflowPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/workflows/{workflow_id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	definition, err := h.workflows.GetDefinition(c.Request.Context(), c.Param("workflow_id"))
	if err != nil {
		responses.HandleError(c, err, "workflow not found")
		return
	}

	c.JSON(http.StatusOK, dto.WorkflowFromDomain(definition))
}

// Update handles PATCH /v1/workflows/:workflow_id
// @Summary Update a workflow definition
// @Tags Workflows
// @Accept json
// @Produce json
// @Param workflow_id path string true "Workflow ID"
// @Param request body dto.UpdateWorkflowRequest true "Update request"
// @Success 200 {object} dto.WorkflowPayload
// @Router /v1/workflows/{workflow_id} [patch]
func (h *WorkflowHandler) Update(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req dto.UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	definition, err := h.workflows.UpdateDefinition(c.Request.Context(), c.Param("workflow_id"), workflow.UpdateDefinitionInput{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		FlowID:               req.FlowID,
		Tweaks:               req.Tweaks,
		RequiredConnectors:   req.RequiredConnectors,
		AllowedOrganizations: req.AllowedOrganizations,
		AllowedRoles:         req.AllowedRoles,
		AllowedUsers:         req.AllowedUsers,
		Active:               req.Active,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to update workflow")
		return
	}

	c.JSON(http.StatusOK, dto.WorkflowFromDomain(definition))
}

// Delete handles DELETE /v1/workflows/:workflow_id
// @Summary Delete a workflow definition
// @Tags Workflows
// @Produce json
// @Param workflow_id path string true "Workflow ID"
// @Success 200 {object} map[string]string
// @Router /v1/workflows/{workflow_id} [delete]
func (h *WorkflowHandler) Delete(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	if err := h.workflows.DeleteDefinition(c.Request.Context(), c.Param("workflow_id")); err != nil {
		responses.HandleError(c, err, "failed to delete workflow")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *WorkflowHandler) requireAdmin(c *gin.Context) bool {
	identity, _, ok := resolveTenant(c, h.organizations)
	if !ok {
		return false
	}
	if identity.Role != organization.RoleAdmin {
		responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "admin role required", "f7e58330-913e-4d8d-b24e-f59c9790cbbf")
		return false
	}
	return true
}
