package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"invision-server/internal/domain/chatsession"
)

// ChatSession represents the database schema for chat sessions.
type ChatSession struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string       `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID         string       `gorm:"type:varchar(64);index:idx_chat_session_user_org;not null"`
	OrganizationID string       `gorm:"type:varchar(64);index:idx_chat_session_user_org;not null"`
	WorkflowID     string       `gorm:"type:varchar(50);not null"`
	Title          string       `gorm:"type:varchar(256);not null"`
	Messages       JSONMessages `gorm:"type:jsonb"`
}

// TableName specifies the table name for ChatSession.
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// JSONMessages stores the transcript as a JSON array.
type JSONMessages []chatsession.Message

func (m JSONMessages) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal([]chatsession.Message{})
	}
	return json.Marshal(m)
}

func (m *JSONMessages) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// EtoD converts database entity to domain model.
func (s *ChatSession) EtoD() *chatsession.ChatSession {
	messages := []chatsession.Message(s.Messages)
	if messages == nil {
		messages = []chatsession.Message{}
	}

	return &chatsession.ChatSession{
		ID:             s.ID,
		PublicID:       s.PublicID,
		UserID:         s.UserID,
		OrganizationID: s.OrganizationID,
		WorkflowID:     s.WorkflowID,
		Title:          s.Title,
		Messages:       messages,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// NewSchemaChatSession creates a database entity from domain model.
func NewSchemaChatSession(s *chatsession.ChatSession) *ChatSession {
	return &ChatSession{
		ID:             s.ID,
		PublicID:       s.PublicID,
		UserID:         s.UserID,
		OrganizationID: s.OrganizationID,
		WorkflowID:     s.WorkflowID,
		Title:          s.Title,
		Messages:       JSONMessages(s.Messages),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
