package dto

// CreateSessionRequest starts a new conversation. When workflowId is
// empty the default orchestrator workflow is used.
type CreateSessionRequest struct {
	WorkflowID string `json:"workflowId"`
}

// RenameSessionRequest updates a session title.
type RenameSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

// ChangeWorkflowRequest rebinds a session to a different workflow.
type ChangeWorkflowRequest struct {
	WorkflowID string `json:"workflowId" binding:"required"`
}

// AuthorizeConnectorRequest starts the connection flow for a toolkit.
type AuthorizeConnectorRequest struct {
	Toolkit string `json:"toolkit" binding:"required"`
}

// CreateWorkflowRequest registers a new workflow definition.
type CreateWorkflowRequest struct {
	Name                 string         `json:"name" binding:"required"`
	Description          string         `json:"description"`
	FlowID               string         `json:"flowId" binding:"required"`
	Category             string         `json:"category"`
	Tweaks               map[string]any `json:"tweaks"`
	RequiredConnectors   []string       `json:"requiredConnectors"`
	AllowedOrganizations []string       `json:"allowedOrganizations"`
	AllowedRoles         []string       `json:"allowedRoles"`
	AllowedUsers         []string       `json:"allowedUsers"`
}

// UpdateWorkflowRequest applies partial updates to a workflow definition.
type UpdateWorkflowRequest struct {
	Name                 *string        `json:"name"`
	Description          *string        `json:"description"`
	FlowID               *string        `json:"flowId"`
	Category             *string        `json:"category"`
	Tweaks               map[string]any `json:"tweaks"`
	RequiredConnectors   []string       `json:"requiredConnectors"`
	AllowedOrganizations []string       `json:"allowedOrganizations"`
	AllowedRoles         []string       `json:"allowedRoles"`
	AllowedUsers         []string       `json:"allowedUsers"`
	Active               *bool          `json:"active"`
}
