// Package readiness evaluates per-project readiness against each reporting
// standard. It is a read-only consumer of project assessment artifacts and
// tagged datapoint codes; it never writes to the standards registry.
package readiness

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SectionMap is a custom GORM type mapping assessment section keys to their
// recorded content, stored as JSON.
type SectionMap map[string]string

// Scan implements the sql.Scanner interface for SectionMap.
func (m *SectionMap) Scan(value any) error {
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
		return fmt.Errorf("unsupported type for SectionMap: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for SectionMap.
func (m SectionMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Standard identifies a reporting standard the engine scores against.
// The set is fixed and ordered; readiness reports always contain one entry
// per standard in this order.
type Standard string

const (
	StandardTCFD Standard = "TCFD"
	StandardCSRD Standard = "CSRD"
	StandardISSB Standard = "ISSB"
	StandardIFRS Standard = "IFRS"
	StandardGRI  Standard = "GRI"
	StandardSASB Standard = "SASB"
	StandardRJC  Standard = "RJC"
)

// Standards lists every scored standard in report order.
var Standards = []Standard{
	StandardTCFD,
	StandardCSRD,
	StandardISSB,
	StandardIFRS,
	StandardGRI,
	StandardSASB,
	StandardRJC,
}

// Status buckets a coverage score.
type Status string

const (
	StatusReady      Status = "READY"       // score >= 80
	StatusInProgress Status = "IN_PROGRESS" // score >= 35
	StatusNotStarted Status = "NOT_STARTED"
)

// StatusForScore returns the bucket for an integer coverage score.
func StatusForScore(score int) Status {
	switch {
	case score >= 80:
		return StatusReady
	case score >= 35:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// StandardReadiness is the derived, never-persisted readiness of one
// project against one standard.
type StandardReadiness struct {
	Standard            Standard `json:"standard"`
	Supported           bool     `json:"supported"`
	CoverageScore       int      `json:"coverageScore"`
	Status              Status   `json:"status"`
	MissingRequirements []string `json:"missingRequirements"`
	AvailableInputs     []string `json:"availableInputs"`
}

// ProjectContext carries everything the engine inspects for one project.
// Missing data is an expected state, never an error: an absent assessment
// simply fails the predicates that need it.
type ProjectContext struct {
	ProjectID string

	// AssessmentSections maps each standard to the set of populated section
	// keys of the project's latest assessment record for that standard.
	AssessmentSections map[Standard]map[string]bool

	// DatapointCodes is the set of datapoint codes tagged on the project.
	DatapointCodes map[string]bool

	EvidenceCount int
	WorkflowCount int
}

// HasSection reports whether the latest assessment for std has the named
// section populated.
func (c *ProjectContext) HasSection(std Standard, section string) bool {
	sections, ok := c.AssessmentSections[std]
	return ok && sections[section]
}

// HasDatapoint reports whether the project has tagged the exact code.
func (c *ProjectContext) HasDatapoint(code string) bool {
	return c.DatapointCodes[code]
}

// Project is a reporting project whose readiness is evaluated. The broader
// project CRUD surface lives elsewhere; this model exists so readiness
// inputs have an owner to attach to.
type Project struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (Project) TableName() string { return "projects" }

// AssessmentRecord is one recorded assessment of a project against a
// standard. Sections maps section keys to their recorded content; the
// engine only cares whether a section's value is non-empty.
type AssessmentRecord struct {
	ID        string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	ProjectID string     `gorm:"column:project_id;index:idx_assessment_project_std,priority:1;not null"`
	Standard  string     `gorm:"column:standard;index:idx_assessment_project_std,priority:2;not null"`
	Sections  SectionMap `gorm:"column:sections;type:text"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (AssessmentRecord) TableName() string { return "assessment_records" }

// DatapointTag marks that a project reports a specific datapoint code.
type DatapointTag struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	ProjectID string    `gorm:"column:project_id;index;not null"`
	Code      string    `gorm:"column:code;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (DatapointTag) TableName() string { return "datapoint_tags" }

// EvidenceRecord is one piece of supporting evidence attached to a project.
type EvidenceRecord struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	ProjectID string    `gorm:"column:project_id;index;not null"`
	Title     string    `gorm:"column:title"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (EvidenceRecord) TableName() string { return "evidence_records" }

// WorkflowRecord is one compliance workflow running for a project.
type WorkflowRecord struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	ProjectID string    `gorm:"column:project_id;index;not null"`
	Name      string    `gorm:"column:name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (WorkflowRecord) TableName() string { return "workflow_records" }
