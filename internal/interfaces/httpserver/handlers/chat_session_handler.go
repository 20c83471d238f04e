package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invision-server/internal/domain/chatsession"
	"invision-server/internal/domain/organization"
	"invision-server/internal/interfaces/httpserver/dto"
	"invision-server/internal/interfaces/httpserver/responses"
	"invision-server/internal/utils/functional"
)

// ChatSessionHandler exposes HTTP entrypoints for conversation management.
type ChatSessionHandler struct {
	sessions      *chatsession.Service
	organizations *organization.Service
	log           zerolog.Logger
}

// NewChatSessionHandler constructs the handler.
func NewChatSessionHandler(sessions *chatsession.Service, organizations *organization.Service, log zerolog.Logger) *ChatSessionHandler {
	return &ChatSessionHandler{
		sessions:      sessions,
		organizations: organizations,
		log:           log.With().Str("handler", "chat_session").Logger(),
	}
}

// Create handles POST /v1/sessions
// @Summary Create a chat session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest true "Create request"
// @Success 200 {object} dto.SessionPayload
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/sessions [post]
func (h *ChatSessionHandler) Create(c *gin.Context) {
	identity, organizationID, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.CreateSession(c.Request.Context(), identity.UserID, organizationID, req.WorkflowID)
	if err != nil {
		responses.HandleError(c, err, "failed to create session")
		return
	}

	c.JSON(http.StatusOK, dto.SessionFromDomain(session))
}

// List handles GET /v1/sessions
// @Summary List the caller's most recent chat sessions
// @Description Returns up to 50 sessions as summaries without transcripts.
// @Tags Sessions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/sessions [get]
func (h *ChatSessionHandler) List(c *gin.Context) {
	identity, organizationID, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	sessions, err := h.sessions.ListSessions(c.Request.Context(), identity.UserID, organizationID)
	if err != nil {
		responses.HandleError(c, err, "failed to list sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": functional.Map(sessions, dto.SessionSummaryFromDomain),
	})
}

// Get handles GET /v1/sessions/:session_id
// @Summary Get a chat session
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/sessions/{session_id} [get]
func (h *ChatSessionHandler) Get(c *gin.Context) {
	identity, organizationID, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), c.Param("session_id"), identity.UserID, organizationID)
	if err != nil {
		responses.HandleError(c, err, "session not found")
		return
	}

	c.JSON(http.StatusOK, dto.SessionFromDomain(session))
}

// Rename handles PATCH /v1/sessions/:session_id
// @Summary Rename a chat session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body dto.RenameSessionRequest true "Rename request"
// @Success 200 {object} dto.SessionPayload
// @Router /v1/sessions/{session_id} [patch]
func (h *ChatSessionHandler) Rename(c *gin.Context) {
	identity, organizationID, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	var req dto.RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.RenameSession(c.Request.Context(), c.Param("session_id"), identity.UserID, organizationID, req.Title)
	if err != nil {
		responses.HandleError(c, err, "failed to rename session")
		return
	}

	c.JSON(http.StatusOK, dto.SessionFromDomain(session))
}

// ChangeWorkflow handles PUT /v1/sessions/:session_id/workflow
// @Summary Rebind a session to a different workflow
// @Description Only allowed while the session has no messages yet.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body dto.ChangeWorkflowRequest true "Workflow request"
// @Success 200 {object} dto.SessionPayload
// @Failure 409 {object} responses.ErrorResponse
// @Router /v1/sessions/{session_id}/workflow [put]
func (h *ChatSessionHandler) ChangeWorkflow(c *gin.Context) {
	identity, organizationID, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	var req dto.ChangeWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.ChangeWorkflow(c.Request.Context(), c.Param("session_id"), identity.UserID, organizationID, req.WorkflowID)
	if err != nil {
		responses.HandleError(c, err, "failed to change workflow")
		return
	}

	c.JSON(http.StatusOK, dto.SessionFromDomain(session))
}

// Delete handles DELETE /v1/sessions/:session_id
// @Summary Delete a chat session
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} map[string]string
// @Router /v1/sessions/{session_id} [delete]
func (h *ChatSessionHandler) Delete(c *gin.Context) {
	identity, organizationID, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	if err := h.sessions.DeleteSession(c.Request.Context(), c.Param("session_id"), identity.UserID, organizationID); err != nil {
		responses.HandleError(c, err, "failed to delete session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
