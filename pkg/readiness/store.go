package readiness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openesg/standards-registry/pkg/apierrors"
)

// Store loads readiness inputs for a project. All reads are lock-free and
// tolerate eventual consistency; no two queries need to observe the same
// snapshot.
type Store struct {
	db *gorm.DB
}

// NewStore creates a readiness Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the project input tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(
		&Project{},
		&AssessmentRecord{},
		&DatapointTag{},
		&EvidenceRecord{},
		&WorkflowRecord{},
	); err != nil {
		return fmt.Errorf("auto-migrate readiness tables: %w", err)
	}
	return nil
}

// LoadContext assembles the evaluation context for a project: the populated
// section sets of the latest assessment per standard, the set of tagged
// datapoint codes, and evidence/workflow counts. Returns a NotFoundError
// for an unknown project and a PersistenceError on store failure; it never
// returns partial context.
func (s *Store) LoadContext(projectID string) (*ProjectContext, error) {
	var project Project
	err := s.db.Where("id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apierrors.NotFoundError{Resource: "project", Key: projectID}
	}
	if err != nil {
		return nil, &apierrors.PersistenceError{Op: "load project", Err: err}
	}

	ctx := &ProjectContext{
		ProjectID:          project.ID,
		AssessmentSections: make(map[Standard]map[string]bool),
		DatapointCodes:     make(map[string]bool),
	}

	// Newest first, so the first record seen per standard is the latest.
	var assessments []AssessmentRecord
	if err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&assessments).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "load assessments", Err: err}
	}
	for _, record := range assessments {
		std := Standard(record.Standard)
		if _, seen := ctx.AssessmentSections[std]; seen {
			continue
		}
		sections := make(map[string]bool, len(record.Sections))
		for key, value := range record.Sections {
			if strings.TrimSpace(value) != "" {
				sections[key] = true
			}
		}
		ctx.AssessmentSections[std] = sections
	}

	var tags []DatapointTag
	if err := s.db.Where("project_id = ?", projectID).Find(&tags).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "load datapoint tags", Err: err}
	}
	for _, tag := range tags {
		ctx.DatapointCodes[tag.Code] = true
	}

	var evidenceCount int64
	if err := s.db.Model(&EvidenceRecord{}).
		Where("project_id = ?", projectID).Count(&evidenceCount).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "count evidence", Err: err}
	}
	ctx.EvidenceCount = int(evidenceCount)

	var workflowCount int64
	if err := s.db.Model(&WorkflowRecord{}).
		Where("project_id = ?", projectID).Count(&workflowCount).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "count workflows", Err: err}
	}
	ctx.WorkflowCount = int(workflowCount)

	return ctx, nil
}

// CreateProject inserts a project row and returns it.
func (s *Store) CreateProject(name string) (*Project, error) {
	project := &Project{ID: uuid.New().String(), Name: name}
	if err := s.db.Create(project).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "create project", Err: err}
	}
	return project, nil
}

// RecordAssessment appends an assessment record for a standard. The latest
// record per standard is the one readiness reads.
func (s *Store) RecordAssessment(projectID string, std Standard, sections SectionMap) (*AssessmentRecord, error) {
	record := &AssessmentRecord{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Standard:  string(std),
		Sections:  sections,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, &apierrors.PersistenceError{Op: "record assessment", Err: err}
	}
	return record, nil
}

// TagDatapoint marks a datapoint code as reported by the project.
func (s *Store) TagDatapoint(projectID, code string) error {
	tag := &DatapointTag{ID: uuid.New().String(), ProjectID: projectID, Code: code}
	if err := s.db.Create(tag).Error; err != nil {
		return &apierrors.PersistenceError{Op: "tag datapoint", Err: err}
	}
	return nil
}

// AddEvidence attaches one piece of supporting evidence to the project.
func (s *Store) AddEvidence(projectID, title string) error {
	record := &EvidenceRecord{ID: uuid.New().String(), ProjectID: projectID, Title: title}
	if err := s.db.Create(record).Error; err != nil {
		return &apierrors.PersistenceError{Op: "add evidence", Err: err}
	}
	return nil
}

// AddWorkflow records a running compliance workflow for the project.
func (s *Store) AddWorkflow(projectID, name string) error {
	record := &WorkflowRecord{ID: uuid.New().String(), ProjectID: projectID, Name: name}
	if err := s.db.Create(record).Error; err != nil {
		return &apierrors.PersistenceError{Op: "add workflow", Err: err}
	}
	return nil
}
