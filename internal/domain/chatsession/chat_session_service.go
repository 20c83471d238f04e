package chatsession

import (
	"context"
	"strings"

	"invision-server/internal/domain/workflow"
	"invision-server/internal/utils/platformerrors"
	"invision-server/internal/utils/stringutils"
)

// WorkflowResolver resolves the workflow definition a session runs against.
type WorkflowResolver interface {
	ResolveActive(ctx context.Context, publicID, organizationID string) (*workflow.Definition, error)
	ResolveDefault(ctx context.Context, organizationID string) (*workflow.Definition, error)
}

// Service provides session management and transcript updates.
type Service struct {
	sessions  Repository
	workflows WorkflowResolver
}

// NewService creates a chat session service.
func NewService(sessions Repository, workflows WorkflowResolver) *Service {
	return &Service{sessions: sessions, workflows: workflows}
}

// CreateSession creates a session for the user against an active workflow.
// When no workflow is named the tenant's default orchestrator is used.
func (s *Service) CreateSession(ctx context.Context, userID, organizationID, workflowPublicID string) (*ChatSession, error) {
	var definition *workflow.Definition
	var err error
	if strings.TrimSpace(workflowPublicID) == "" {
		definition, err = s.workflows.ResolveDefault(ctx, organizationID)
	} else {
		definition, err = s.workflows.ResolveActive(ctx, workflowPublicID, organizationID)
	}
	if err != nil {
		return nil, err
	}

	session, err := NewChatSession(userID, organizationID, definition.PublicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create session")
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist session")
	}

	return session, nil
}

// ListSessions returns the user's sessions inside the active organization.
func (s *Service) ListSessions(ctx context.Context, userID, organizationID string) ([]*ChatSession, error) {
	sessions, err := s.sessions.FindByUser(ctx, userID, organizationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list sessions")
	}
	return sessions, nil
}

// GetSession fetches a session the user owns. Sessions belonging to other
// users or other organizations surface as not found.
func (s *Service) GetSession(ctx context.Context, publicID, userID, organizationID string) (*ChatSession, error) {
	if strings.TrimSpace(publicID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "session ID is required", nil, "5fe87cf8-a9e3-4918-9da7-51daafc78ca2")
	}

	session, err := s.sessions.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to find session")
	}
	if session == nil || session.UserID != userID || session.OrganizationID != organizationID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "session not found", nil, "4e188104-5489-4295-b383-6a9a1ffb5235")
	}

	return session, nil
}

// ResolveForStream fetches an owned session together with its active
// workflow definition.
func (s *Service) ResolveForStream(ctx context.Context, publicID, userID, organizationID string) (*ChatSession, *workflow.Definition, error) {
	session, err := s.GetSession(ctx, publicID, userID, organizationID)
	if err != nil {
		return nil, nil, err
	}

	definition, err := s.workflows.ResolveActive(ctx, session.WorkflowID, organizationID)
	if err != nil {
		return nil, nil, err
	}

	return session, definition, nil
}

// AppendUserMessage records the user's message before streaming begins and
// derives a title from it when the session still carries the placeholder.
func (s *Service) AppendUserMessage(ctx context.Context, session *ChatSession, content string) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message is required", nil, "0eb5a70e-f36a-44d9-bf1c-affa16da1657")
	}

	message, err := NewMessage(RoleUser, content)
	if err != nil {
		return Message{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create message")
	}

	session.Messages = append(session.Messages, message)
	if stringutils.IsPlaceholderTitle(session.Title) {
		session.Title = stringutils.SessionTitle(content)
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return Message{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist session")
	}

	return message, nil
}

// FinalizeAssistant appends the assistant's reply after a stream completes.
// The session is re-read so late writes from other requests are not lost,
// and a reply whose content already exists in the transcript is skipped.
func (s *Service) FinalizeAssistant(ctx context.Context, publicID, userID, organizationID, text string) (*ChatSession, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	session, err := s.GetSession(ctx, publicID, userID, organizationID)
	if err != nil {
		return nil, err
	}

	if session.HasAssistantMessage(text) {
		return session, nil
	}

	message, err := NewMessage(RoleAssistant, text)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create message")
	}

	session.Messages = append(session.Messages, message)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist session")
	}

	return session, nil
}

// ChangeWorkflow rebinds an owned session to a different workflow. The
// binding is only mutable while the transcript is still empty.
func (s *Service) ChangeWorkflow(ctx context.Context, publicID, userID, organizationID, workflowPublicID string) (*ChatSession, error) {
	session, err := s.GetSession(ctx, publicID, userID, organizationID)
	if err != nil {
		return nil, err
	}

	if len(session.Messages) > 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "cannot change workflow on a session with messages", nil, "64284f6d-fd9f-4d75-ad2e-6912160c5577")
	}

	definition, err := s.workflows.ResolveActive(ctx, workflowPublicID, organizationID)
	if err != nil {
		return nil, err
	}

	session.WorkflowID = definition.PublicID
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist session")
	}

	return session, nil
}

// RenameSession updates an owned session's title.
func (s *Service) RenameSession(ctx context.Context, publicID, userID, organizationID, title string) (*ChatSession, error) {
	if strings.TrimSpace(title) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "title is required", nil, "7790aa26-54e1-489d-88d2-6c7698cde043")
	}

	session, err := s.GetSession(ctx, publicID, userID, organizationID)
	if err != nil {
		return nil, err
	}

	session.Title = strings.TrimSpace(title)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist session")
	}

	return session, nil
}

// DeleteSession removes an owned session.
func (s *Service) DeleteSession(ctx context.Context, publicID, userID, organizationID string) error {
	session, err := s.GetSession(ctx, publicID, userID, organizationID)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, session); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete session")
	}

	return nil
}
