package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LogDetail is the structured payload attached to a system log entry
type LogDetail map[string]interface{}

// Value implements driver.Valuer for JSONB
func (d LogDetail) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal(LogDetail{})
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB
func (d *LogDetail) Scan(value interface{}) error {
	if value == nil {
		*d = make(LogDetail)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*d = make(LogDetail)
		return nil
	}

	if len(bytes) == 0 {
		*d = make(LogDetail)
		return nil
	}

	return json.Unmarshal(bytes, d)
}

// SystemLog is an append-only audit record. Only admins may read them.
type SystemLog struct {
	ID        uuid.UUID  `json:"id"`
	Action    string     `json:"action"`
	Detail    LogDetail  `json:"detail,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
