package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageRole constrains who authored a message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Conversation represents a chat thread owned by exactly one user
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Citation points at a corpus document that grounded an assistant answer
type Citation struct {
	Title  string `json:"title"`
	Domain Domain `json:"domain"`
}

// Citations is the list of citations attached to an assistant message
type Citations []Citation

// Value implements driver.Valuer for JSONB
func (c Citations) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *Citations) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*c = nil
		return nil
	}

	if len(bytes) == 0 {
		*c = nil
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// Message represents one entry in a conversation transcript
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Citations      Citations   `json:"citations,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
