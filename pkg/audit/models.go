// Package audit provides the append-only audit event sink the ingestion
// flow writes to, plus its query API and retention pruning.
package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONAny is a custom GORM type for map[string]any stored as JSON.
type JSONAny map[string]any

// Scan implements the sql.Scanner interface for JSONAny.
func (m *JSONAny) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONAny: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for JSONAny.
func (m JSONAny) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// EventRecord is an immutable audit log entry. Rows are only ever appended
// and pruned by age, never updated.
type EventRecord struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	EventType     string    `gorm:"column:event_type;index:idx_audit_type_time,priority:1;not null"`
	Actor         string    `gorm:"column:actor;index:idx_audit_actor_time,priority:1;not null"`
	FrameworkCode string    `gorm:"column:framework_code;index"`
	VersionTag    string    `gorm:"column:version_tag"`
	ProjectID     string    `gorm:"column:project_id;index"`
	Action        string    `gorm:"column:action"`
	Outcome       string    `gorm:"column:outcome;not null"` // success, failure, denied
	Reason        string    `gorm:"column:reason"`
	Details       JSONAny   `gorm:"column:details;type:text"`
	RequestID     string    `gorm:"column:request_id;index"`
	StatusCode    int       `gorm:"column:status_code"`
	CreatedAt     time.Time `gorm:"column:created_at;index:idx_audit_type_time,priority:2;index:idx_audit_actor_time,priority:2;autoCreateTime"`
}

// TableName returns the GORM table name.
func (EventRecord) TableName() string { return "audit_events" }
