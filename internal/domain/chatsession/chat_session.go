package chatsession

import (
	"context"
	"time"

	"invision-server/internal/utils/idgen"
	"invision-server/internal/utils/stringutils"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a session transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession is a per-user conversation bound to one workflow definition.
type ChatSession struct {
	ID             uint
	PublicID       string
	UserID         string
	OrganizationID string
	WorkflowID     string
	Title          string
	Messages       []Message
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewChatSession creates a session with a generated public ID and the
// placeholder title.
func NewChatSession(userID, organizationID, workflowID string) (*ChatSession, error) {
	publicID, err := idgen.GenerateSecureID("sess", 16)
	if err != nil {
		return nil, err
	}

	return &ChatSession{
		PublicID:       publicID,
		UserID:         userID,
		OrganizationID: organizationID,
		WorkflowID:     workflowID,
		Title:          stringutils.DefaultSessionTitle,
		Messages:       []Message{},
	}, nil
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(role Role, content string) (Message, error) {
	id, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return Message{}, err
	}

	return Message{
		ID:        id,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// HasAssistantMessage reports whether the transcript already contains an
// assistant message with exactly this content.
func (s *ChatSession) HasAssistantMessage(content string) bool {
	for _, message := range s.Messages {
		if message.Role == RoleAssistant && message.Content == content {
			return true
		}
	}
	return false
}

// Repository defines persistence operations for chat sessions.
type Repository interface {
	Create(ctx context.Context, session *ChatSession) error
	Update(ctx context.Context, session *ChatSession) error
	Delete(ctx context.Context, session *ChatSession) error
	FindByPublicID(ctx context.Context, publicID string) (*ChatSession, error)
	FindByUser(ctx context.Context, userID, organizationID string) ([]*ChatSession, error)
}
