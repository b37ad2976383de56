// Package registry owns the persistent model of the standards registry:
// Framework -> StandardVersion -> {Disclosures, Datapoints, ValidationRules}
// plus the append-only ingestion job log. It is the sole writer of these
// tables; every other component reads them.
package registry

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openesg/standards-registry/pkg/ingest"
)

// JSONStringSlice is a custom GORM type for []string stored as JSON.
type JSONStringSlice []string

// Scan implements the sql.Scanner interface for JSONStringSlice.
func (s *JSONStringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONStringSlice: %T", value)
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface for JSONStringSlice.
func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// VersionStatus is the lifecycle status of a standard version.
type VersionStatus string

const (
	// VersionStatusDraft is the status every ingested version starts in
	// (and is reset to on re-ingestion).
	VersionStatusDraft VersionStatus = "DRAFT"
)

// Framework is a named reporting standard. One row per framework code; the
// row is created on first ingestion of that code and never deleted.
type Framework struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Code        string    `gorm:"column:code;uniqueIndex:idx_framework_code;not null" json:"code"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (Framework) TableName() string { return "frameworks" }

// StandardVersion is one published edition of a framework, unique per
// (framework_id, version_tag). Its metadata is overwritten on re-ingestion
// of the same tag; its child collections are fully replaced, never patched.
type StandardVersion struct {
	ID            string        `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	FrameworkID   string        `gorm:"column:framework_id;uniqueIndex:idx_version_fw_tag,priority:1;not null" json:"frameworkId"`
	VersionTag    string        `gorm:"column:version_tag;uniqueIndex:idx_version_fw_tag,priority:2;not null" json:"versionTag"`
	SourceURL     string        `gorm:"column:source_url" json:"sourceUrl"`
	EffectiveFrom *time.Time    `gorm:"column:effective_from" json:"effectiveFrom,omitempty"`
	Checksum      string        `gorm:"column:checksum;not null" json:"checksum"`
	Notes         string        `gorm:"column:notes" json:"notes,omitempty"`
	Status        VersionStatus `gorm:"column:status;default:DRAFT;not null" json:"status"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (StandardVersion) TableName() string { return "standard_versions" }

// Disclosure is a reporting requirement within a version. DisclosureID is
// unique within its version, not globally. ParentDisclosureID is advisory:
// it is stored verbatim and not validated for existence or cycles.
type Disclosure struct {
	ID                 string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	VersionID          string          `gorm:"column:version_id;index:idx_disclosure_version;uniqueIndex:idx_disclosure_version_code,priority:1;not null" json:"versionId"`
	DisclosureID       string          `gorm:"column:disclosure_id;uniqueIndex:idx_disclosure_version_code,priority:2;not null" json:"disclosureId"`
	Title              string          `gorm:"column:title;not null" json:"title"`
	Level              int             `gorm:"column:level;default:2;not null" json:"level"`
	MandatoryFor       JSONStringSlice `gorm:"column:mandatory_for;type:text" json:"mandatoryFor,omitempty"`
	SectorSpecific     bool            `gorm:"column:sector_specific" json:"sectorSpecific"`
	ParentDisclosureID string          `gorm:"column:parent_disclosure_id" json:"parentDisclosureId,omitempty"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName returns the GORM table name.
func (Disclosure) TableName() string { return "disclosures" }

// Datapoint is a single reportable field within a version.
type Datapoint struct {
	ID            string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	VersionID     string          `gorm:"column:version_id;index:idx_datapoint_version;uniqueIndex:idx_datapoint_version_code,priority:1;not null" json:"versionId"`
	Code          string          `gorm:"column:code;uniqueIndex:idx_datapoint_version_code,priority:2;not null" json:"code"`
	Label         string          `gorm:"column:label;not null" json:"label"`
	DataType      string          `gorm:"column:data_type;not null" json:"dataType"`
	Unit          string          `gorm:"column:unit" json:"unit,omitempty"`
	AllowedValues JSONStringSlice `gorm:"column:allowed_values;type:text" json:"allowedValues,omitempty"`
	DisclosureID  string          `gorm:"column:disclosure_id" json:"disclosureId"`
	DimensionType string          `gorm:"column:dimension_type;default:NONE;not null" json:"dimensionType"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName returns the GORM table name.
func (Datapoint) TableName() string { return "datapoints" }

// ValidationRule is an assertion attached to a version. The expression is
// opaque here; an external rule engine interprets it.
type ValidationRule struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	VersionID     string    `gorm:"column:version_id;index:idx_rule_version;uniqueIndex:idx_rule_version_code,priority:1;not null" json:"versionId"`
	RuleCode      string    `gorm:"column:rule_code;uniqueIndex:idx_rule_version_code,priority:2;not null" json:"ruleCode"`
	Severity      string    `gorm:"column:severity;not null" json:"severity"`
	AssertionType string    `gorm:"column:assertion_type;not null" json:"assertionType"`
	Expression    string    `gorm:"column:expression;not null" json:"expression"`
	DisclosureID  string    `gorm:"column:disclosure_id" json:"disclosureId"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName returns the GORM table name.
func (ValidationRule) TableName() string { return "validation_rules" }

// JobStatus is the outcome of an ingestion job. Failed ingestions never
// write a job row, so SUCCEEDED is the only recorded status.
type JobStatus string

const (
	JobStatusSucceeded JobStatus = "SUCCEEDED"
)

// IngestionJob is an append-only audit record of one successful registry
// update. Never mutated after creation.
type IngestionJob struct {
	ID              string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	FrameworkID     string    `gorm:"column:framework_id;index:idx_job_framework;not null" json:"frameworkId"`
	FrameworkCode   string    `gorm:"column:framework_code;not null" json:"frameworkCode"`
	VersionID       string    `gorm:"column:version_id;index:idx_job_version;not null" json:"versionId"`
	VersionTag      string    `gorm:"column:version_tag;not null" json:"versionTag"`
	RequestedBy     string    `gorm:"column:requested_by;not null" json:"requestedBy"`
	Status          JobStatus `gorm:"column:status;not null" json:"status"`
	Checksum        string    `gorm:"column:checksum;not null" json:"checksum"`
	DisclosureCount int       `gorm:"column:disclosure_count" json:"disclosureCount"`
	DatapointCount  int       `gorm:"column:datapoint_count" json:"datapointCount"`
	RuleCount       int       `gorm:"column:rule_count" json:"ruleCount"`
	CreatedAt       time.Time `gorm:"column:created_at;index:idx_job_created;autoCreateTime" json:"createdAt"`
}

// TableName returns the GORM table name.
func (IngestionJob) TableName() string { return "ingestion_jobs" }

// frameworkDefaults supplies the name and description used when a framework
// row is first created by ingestion.
var frameworkDefaults = map[ingest.FrameworkCode]struct {
	Name        string
	Description string
}{
	ingest.FrameworkGRI:  {"Global Reporting Initiative", "GRI Universal and Topic Standards"},
	ingest.FrameworkISSB: {"International Sustainability Standards Board", "IFRS S1 and S2 sustainability disclosure standards"},
	ingest.FrameworkESRS: {"European Sustainability Reporting Standards", "ESRS under the Corporate Sustainability Reporting Directive"},
	ingest.FrameworkSASB: {"Sustainability Accounting Standards Board", "Industry-based sustainability accounting standards"},
	ingest.FrameworkTCFD: {"Task Force on Climate-related Financial Disclosures", "TCFD recommendations"},
	ingest.FrameworkRJC:  {"Responsible Jewellery Council", "RJC Code of Practices and Chain of Custody"},
}
