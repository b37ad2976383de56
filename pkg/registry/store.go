package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openesg/standards-registry/pkg/apierrors"
	"github.com/openesg/standards-registry/pkg/ingest"
)

// RegistryStore is the sole writer of the registry tables. Ingestion runs
// inside one database transaction so readers observe either the fully-old
// or fully-new child set for a version, never a mix.
type RegistryStore struct {
	db *gorm.DB
}

// NewRegistryStore creates a new RegistryStore.
func NewRegistryStore(db *gorm.DB) *RegistryStore {
	return &RegistryStore{db: db}
}

// AutoMigrate creates or updates the registry tables.
func (s *RegistryStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(
		&Framework{},
		&StandardVersion{},
		&Disclosure{},
		&Datapoint{},
		&ValidationRule{},
		&IngestionJob{},
	); err != nil {
		return fmt.Errorf("auto-migrate registry tables: %w", err)
	}
	return nil
}

// IngestCounts summarizes the child collections written by one ingestion.
type IngestCounts struct {
	Disclosures     int `json:"disclosures"`
	Datapoints      int `json:"datapoints"`
	ValidationRules int `json:"validationRules"`
}

// IngestResult is the full observable result of one ingestion.
type IngestResult struct {
	Framework *Framework       `json:"framework"`
	Version   *StandardVersion `json:"version"`
	Job       *IngestionJob    `json:"job"`
	Counts    IngestCounts     `json:"counts"`
}

// Ingest validates nothing itself: callers must have run payload validation
// first. It upserts the framework by code, upserts the version by
// (frameworkID, versionTag), replaces the version's children wholesale, and
// appends a SUCCEEDED ingestion job — all in one transaction. On any
// failure the transaction rolls back and no job row is written; the
// operation is safe to re-drive.
func (s *RegistryStore) Ingest(payload *ingest.Payload, actor string) (*IngestResult, error) {
	if actor == "" {
		actor = "system"
	}

	checksum := payload.PackageChecksum
	if checksum == "" {
		computed, err := ingest.Checksum(payload)
		if err != nil {
			return nil, &apierrors.PersistenceError{Op: "compute checksum", Err: err}
		}
		checksum = computed
	}

	var result IngestResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		framework, err := upsertFramework(tx, payload.FrameworkCode)
		if err != nil {
			return err
		}

		version, err := upsertVersion(tx, framework.ID, payload, checksum)
		if err != nil {
			return err
		}

		counts, err := replaceChildren(tx, version.ID, payload)
		if err != nil {
			return err
		}

		job := &IngestionJob{
			ID:              uuid.New().String(),
			FrameworkID:     framework.ID,
			FrameworkCode:   framework.Code,
			VersionID:       version.ID,
			VersionTag:      version.VersionTag,
			RequestedBy:     actor,
			Status:          JobStatusSucceeded,
			Checksum:        checksum,
			DisclosureCount: counts.Disclosures,
			DatapointCount:  counts.Datapoints,
			RuleCount:       counts.ValidationRules,
		}
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("record ingestion job: %w", err)
		}

		result = IngestResult{
			Framework: framework,
			Version:   version,
			Job:       job,
			Counts:    counts,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apierrors.ConflictError{
				Message: fmt.Sprintf("concurrent ingestion of %s %s", payload.FrameworkCode, payload.VersionTag),
			}
		}
		return nil, &apierrors.PersistenceError{Op: "ingest", Err: err}
	}
	return &result, nil
}

// upsertFramework creates the framework row on first ingestion of a code,
// otherwise only bumps its updated timestamp.
func upsertFramework(tx *gorm.DB, code ingest.FrameworkCode) (*Framework, error) {
	var framework Framework
	err := tx.Where("code = ?", string(code)).First(&framework).Error
	if err == nil {
		if err := tx.Model(&framework).Update("updated_at", time.Now().UTC()).Error; err != nil {
			return nil, fmt.Errorf("touch framework: %w", err)
		}
		return &framework, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load framework: %w", err)
	}

	defaults := frameworkDefaults[code]
	framework = Framework{
		ID:          uuid.New().String(),
		Code:        string(code),
		Name:        defaults.Name,
		Description: defaults.Description,
	}
	if err := tx.Create(&framework).Error; err != nil {
		return nil, fmt.Errorf("create framework: %w", err)
	}
	return &framework, nil
}

// upsertVersion creates or overwrites the version row for
// (frameworkID, versionTag). On conflict the metadata fields are replaced
// and the status resets to DRAFT.
func upsertVersion(tx *gorm.DB, frameworkID string, payload *ingest.Payload, checksum string) (*StandardVersion, error) {
	var version StandardVersion
	err := tx.Where("framework_id = ? AND version_tag = ?", frameworkID, payload.VersionTag).
		First(&version).Error
	switch {
	case err == nil:
		version.SourceURL = payload.SourceURL
		version.EffectiveFrom = payload.EffectiveFrom
		version.Checksum = checksum
		version.Notes = payload.Notes
		version.Status = VersionStatusDraft
		if err := tx.Save(&version).Error; err != nil {
			return nil, fmt.Errorf("update version: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		version = StandardVersion{
			ID:            uuid.New().String(),
			FrameworkID:   frameworkID,
			VersionTag:    payload.VersionTag,
			SourceURL:     payload.SourceURL,
			EffectiveFrom: payload.EffectiveFrom,
			Checksum:      checksum,
			Notes:         payload.Notes,
			Status:        VersionStatusDraft,
		}
		if err := tx.Create(&version).Error; err != nil {
			return nil, fmt.Errorf("create version: %w", err)
		}
	default:
		return nil, fmt.Errorf("load version: %w", err)
	}
	return &version, nil
}

// replaceChildren deletes every child row owned by the version and bulk
// inserts the payload's sets. Runs inside the ingest transaction.
func replaceChildren(tx *gorm.DB, versionID string, payload *ingest.Payload) (IngestCounts, error) {
	var counts IngestCounts

	if err := tx.Where("version_id = ?", versionID).Delete(&Disclosure{}).Error; err != nil {
		return counts, fmt.Errorf("delete disclosures: %w", err)
	}
	if err := tx.Where("version_id = ?", versionID).Delete(&Datapoint{}).Error; err != nil {
		return counts, fmt.Errorf("delete datapoints: %w", err)
	}
	if err := tx.Where("version_id = ?", versionID).Delete(&ValidationRule{}).Error; err != nil {
		return counts, fmt.Errorf("delete validation rules: %w", err)
	}

	if len(payload.Disclosures) > 0 {
		rows := make([]Disclosure, len(payload.Disclosures))
		for i, d := range payload.Disclosures {
			rows[i] = Disclosure{
				ID:                 uuid.New().String(),
				VersionID:          versionID,
				DisclosureID:       d.DisclosureID,
				Title:              d.Title,
				Level:              d.Level,
				MandatoryFor:       JSONStringSlice(d.MandatoryFor),
				SectorSpecific:     d.SectorSpecific,
				ParentDisclosureID: d.ParentDisclosureID,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return counts, fmt.Errorf("insert disclosures: %w", err)
		}
	}

	if len(payload.Datapoints) > 0 {
		rows := make([]Datapoint, len(payload.Datapoints))
		for i, dp := range payload.Datapoints {
			rows[i] = Datapoint{
				ID:            uuid.New().String(),
				VersionID:     versionID,
				Code:          dp.Code,
				Label:         dp.Label,
				DataType:      dp.DataType,
				Unit:          dp.Unit,
				AllowedValues: JSONStringSlice(dp.AllowedValues),
				DisclosureID:  dp.DisclosureID,
				DimensionType: string(dp.DimensionType),
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return counts, fmt.Errorf("insert datapoints: %w", err)
		}
	}

	if len(payload.ValidationRules) > 0 {
		rows := make([]ValidationRule, len(payload.ValidationRules))
		for i, r := range payload.ValidationRules {
			rows[i] = ValidationRule{
				ID:            uuid.New().String(),
				VersionID:     versionID,
				RuleCode:      r.RuleCode,
				Severity:      string(r.Severity),
				AssertionType: string(r.AssertionType),
				Expression:    r.Expression,
				DisclosureID:  r.DisclosureID,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return counts, fmt.Errorf("insert validation rules: %w", err)
		}
	}

	counts.Disclosures = len(payload.Disclosures)
	counts.Datapoints = len(payload.Datapoints)
	counts.ValidationRules = len(payload.ValidationRules)
	return counts, nil
}

// ListJobs returns the most recent ingestion jobs, newest first.
func (s *RegistryStore) ListJobs(limit int) ([]IngestionJob, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	var jobs []IngestionJob
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "list ingestion jobs", Err: err}
	}
	return jobs, nil
}

// GetFramework retrieves a framework by code.
// Returns a NotFoundError if the code has never been ingested.
func (s *RegistryStore) GetFramework(code string) (*Framework, error) {
	var framework Framework
	err := s.db.Where("code = ?", code).First(&framework).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apierrors.NotFoundError{Resource: "framework", Key: code}
	}
	if err != nil {
		return nil, &apierrors.PersistenceError{Op: "get framework", Err: err}
	}
	return &framework, nil
}

// ListFrameworks returns all frameworks ordered by code.
func (s *RegistryStore) ListFrameworks() ([]Framework, error) {
	var frameworks []Framework
	if err := s.db.Order("code ASC").Find(&frameworks).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "list frameworks", Err: err}
	}
	return frameworks, nil
}

// ListVersions returns a framework's versions, newest first.
func (s *RegistryStore) ListVersions(code string) ([]StandardVersion, error) {
	framework, err := s.GetFramework(code)
	if err != nil {
		return nil, err
	}
	var versions []StandardVersion
	if err := s.db.Where("framework_id = ?", framework.ID).
		Order("created_at DESC").Find(&versions).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "list versions", Err: err}
	}
	return versions, nil
}

// VersionDetail is a version together with its child counts.
type VersionDetail struct {
	Version *StandardVersion `json:"version"`
	Counts  IngestCounts     `json:"counts"`
}

// GetVersion retrieves one version of a framework with its child counts.
func (s *RegistryStore) GetVersion(code, tag string) (*VersionDetail, error) {
	framework, err := s.GetFramework(code)
	if err != nil {
		return nil, err
	}

	var version StandardVersion
	err = s.db.Where("framework_id = ? AND version_tag = ?", framework.ID, tag).
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apierrors.NotFoundError{Resource: "version", Key: code + "/" + tag}
	}
	if err != nil {
		return nil, &apierrors.PersistenceError{Op: "get version", Err: err}
	}

	detail := &VersionDetail{Version: &version}
	counts := []struct {
		model any
		dest  *int
	}{
		{&Disclosure{}, &detail.Counts.Disclosures},
		{&Datapoint{}, &detail.Counts.Datapoints},
		{&ValidationRule{}, &detail.Counts.ValidationRules},
	}
	for _, c := range counts {
		var n int64
		if err := s.db.Model(c.model).Where("version_id = ?", version.ID).Count(&n).Error; err != nil {
			return nil, &apierrors.PersistenceError{Op: "count version children", Err: err}
		}
		*c.dest = int(n)
	}
	return detail, nil
}

// ListDisclosures returns the disclosures owned by a version.
func (s *RegistryStore) ListDisclosures(versionID string) ([]Disclosure, error) {
	var rows []Disclosure
	if err := s.db.Where("version_id = ?", versionID).Order("disclosure_id ASC").Find(&rows).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "list disclosures", Err: err}
	}
	return rows, nil
}

// ListDatapoints returns the datapoints owned by a version.
func (s *RegistryStore) ListDatapoints(versionID string) ([]Datapoint, error) {
	var rows []Datapoint
	if err := s.db.Where("version_id = ?", versionID).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "list datapoints", Err: err}
	}
	return rows, nil
}

// ListValidationRules returns the validation rules owned by a version.
func (s *RegistryStore) ListValidationRules(versionID string) ([]ValidationRule, error) {
	var rows []ValidationRule
	if err := s.db.Where("version_id = ?", versionID).Order("rule_code ASC").Find(&rows).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "list validation rules", Err: err}
	}
	return rows, nil
}
