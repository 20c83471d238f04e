package handlers

import (
	"github.com/rs/zerolog"

	"invision-server/internal/domain/chatsession"
	"invision-server/internal/domain/connector"
	"invision-server/internal/domain/organization"
	"invision-server/internal/domain/workflow"
	"invision-server/internal/infrastructure/flowengine"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	ChatSession  *ChatSessionHandler
	Stream       *StreamHandler
	Workflow     *WorkflowHandler
	Connector    *ConnectorHandler
	Organization *OrganizationHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	sessionService *chatsession.Service,
	workflowService *workflow.Service,
	organizationService *organization.Service,
	connectorService *connector.Service,
	engine *flowengine.Client,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		ChatSession:  NewChatSessionHandler(sessionService, organizationService, log),
		Stream:       NewStreamHandler(sessionService, organizationService, connectorService, engine, log),
		Workflow:     NewWorkflowHandler(workflowService, organizationService, log),
		Connector:    NewConnectorHandler(connectorService, workflowService, organizationService, log),
		Organization: NewOrganizationHandler(organizationService, log),
	}
}
