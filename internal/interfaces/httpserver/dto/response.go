package dto

import (
	"time"

	"invision-server/internal/domain/chatsession"
	"invision-server/internal/domain/connector"
	"invision-server/internal/domain/organization"
	"invision-server/internal/domain/workflow"
)

// MessagePayload is one transcript entry returned to clients.
type MessagePayload struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionPayload is returned to clients.
type SessionPayload struct {
	ID         string           `json:"id"`
	WorkflowID string           `json:"workflowId"`
	Title      string           `json:"title"`
	Messages   []MessagePayload `json:"messages"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// SessionFromDomain maps the domain session to DTO.
func SessionFromDomain(s *chatsession.ChatSession) SessionPayload {
	messages := make([]MessagePayload, 0, len(s.Messages))
	for _, message := range s.Messages {
		messages = append(messages, MessagePayload{
			ID:        message.ID,
			Role:      string(message.Role),
			Content:   message.Content,
			Timestamp: message.CreatedAt,
		})
	}

	return SessionPayload{
		ID:         s.PublicID,
		WorkflowID: s.WorkflowID,
		Title:      s.Title,
		Messages:   messages,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// SessionSummaryPayload lists a session without its transcript.
type SessionSummaryPayload struct {
	ID           string    `json:"id"`
	WorkflowID   string    `json:"workflowId"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SessionSummaryFromDomain maps the domain session to a listing DTO.
func SessionSummaryFromDomain(s *chatsession.ChatSession) SessionSummaryPayload {
	return SessionSummaryPayload{
		ID:           s.PublicID,
		WorkflowID:   s.WorkflowID,
		Title:        s.Title,
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// WorkflowPayload is returned to clients.
type WorkflowPayload struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Slug                 string         `json:"slug"`
	Description          string         `json:"description"`
	Category             string         `json:"category,omitempty"`
	FlowID               string         `json:"flowId"`
	Tweaks               map[string]any `json:"tweaks,omitempty"`
	RequiredConnectors   []string       `json:"requiredConnectors,omitempty"`
	AllowedOrganizations []string       `json:"allowedOrganizations,omitempty"`
	AllowedRoles         []string       `json:"allowedRoles,omitempty"`
	AllowedUsers         []string       `json:"allowedUsers,omitempty"`
	Active               bool           `json:"active"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// WorkflowFromDomain maps the domain definition to DTO.
func WorkflowFromDomain(d *workflow.Definition) WorkflowPayload {
	return WorkflowPayload{
		ID:                   d.PublicID,
		Name:                 d.Name,
		Slug:                 d.Slug,
		Description:          d.Description,
		Category:             d.Category,
		FlowID:               d.FlowID,
		Tweaks:               d.Tweaks,
		RequiredConnectors:   d.RequiredConnectors,
		AllowedOrganizations: d.AllowedOrganizations,
		AllowedRoles:         d.AllowedRoles,
		AllowedUsers:         d.AllowedUsers,
		Active:               d.Active,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

// WorkflowSummaryPayload omits tenant configuration for non-admin listings.
type WorkflowSummaryPayload struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Slug               string   `json:"slug"`
	Description        string   `json:"description"`
	Category           string   `json:"category,omitempty"`
	RequiredConnectors []string `json:"requiredConnectors,omitempty"`
}

// WorkflowSummaryFromDomain maps the domain definition to a summary DTO.
func WorkflowSummaryFromDomain(d *workflow.Definition) WorkflowSummaryPayload {
	return WorkflowSummaryPayload{
		ID:                 d.PublicID,
		Name:               d.Name,
		Slug:               d.Slug,
		Description:        d.Description,
		Category:           d.Category,
		RequiredConnectors: d.RequiredConnectors,
	}
}

// AccountPayload is one connected account returned to clients.
type AccountPayload struct {
	ID      string `json:"id"`
	Toolkit string `json:"toolkit"`
	Status  string `json:"status"`
}

// AccountFromDomain maps the domain account to DTO.
func AccountFromDomain(a connector.Account) AccountPayload {
	return AccountPayload{
		ID:      a.ID,
		Toolkit: a.Toolkit,
		Status:  a.Status,
	}
}

// ToolkitPayload is one connectable toolkit returned to clients.
type ToolkitPayload struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	LogoURL     string   `json:"logoUrl,omitempty"`
	AuthSchemes []string `json:"authSchemes,omitempty"`
}

// ToolkitFromDomain maps the domain toolkit to DTO.
func ToolkitFromDomain(t connector.Toolkit) ToolkitPayload {
	return ToolkitPayload{
		Slug:        t.Slug,
		Name:        t.Name,
		Description: t.Description,
		LogoURL:     t.LogoURL,
		AuthSchemes: t.AuthSchemes,
	}
}

// MembershipPayload is one organization membership returned to clients.
type MembershipPayload struct {
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name,omitempty"`
	Slug           string    `json:"slug,omitempty"`
	Role           string    `json:"role"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// MembershipFromDomain maps the domain membership to DTO.
func MembershipFromDomain(m *organization.Membership) MembershipPayload {
	payload := MembershipPayload{
		OrganizationID: m.OrganizationID,
		Role:           m.Role,
		JoinedAt:       m.CreatedAt,
	}
	if m.Organization != nil {
		payload.Name = m.Organization.Name
		payload.Slug = m.Organization.Slug
	}
	return payload
}
