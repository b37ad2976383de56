// Package ingest builds and validates standards ingestion payloads from
// tabular sources and computes their content checksums.
package ingest

import (
	"fmt"
	"time"

	"github.com/openesg/standards-registry/pkg/apierrors"
)

// FrameworkCode identifies one of the supported reporting standards.
// The set is closed: ingestion of any other code is rejected before any write.
type FrameworkCode string

const (
	FrameworkGRI  FrameworkCode = "GRI"
	FrameworkISSB FrameworkCode = "ISSB"
	FrameworkESRS FrameworkCode = "ESRS"
	FrameworkSASB FrameworkCode = "SASB"
	FrameworkTCFD FrameworkCode = "TCFD"
	FrameworkRJC  FrameworkCode = "RJC"
)

// KnownFrameworkCodes lists the supported codes in their canonical order.
var KnownFrameworkCodes = []FrameworkCode{
	FrameworkGRI,
	FrameworkISSB,
	FrameworkESRS,
	FrameworkSASB,
	FrameworkTCFD,
	FrameworkRJC,
}

// IsValid reports whether the code belongs to the closed framework set.
func (c FrameworkCode) IsValid() bool {
	for _, known := range KnownFrameworkCodes {
		if c == known {
			return true
		}
	}
	return false
}

// Severity classifies a validation rule.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// IsValid reports whether the severity is a known value.
func (s Severity) IsValid() bool {
	return s == SeverityError || s == SeverityWarning
}

// AssertionType classifies what a validation rule asserts.
type AssertionType string

const (
	AssertionExistence AssertionType = "existenceAssertion"
	AssertionValue     AssertionType = "valueAssertion"
)

// IsValid reports whether the assertion type is a known value.
func (a AssertionType) IsValid() bool {
	return a == AssertionExistence || a == AssertionValue
}

// DimensionType classifies a datapoint's dimensionality.
type DimensionType string

const (
	DimensionNone     DimensionType = "NONE"
	DimensionExplicit DimensionType = "EXPLICIT"
	DimensionTyped    DimensionType = "TYPED"
)

// IsValid reports whether the dimension type is a known value.
func (d DimensionType) IsValid() bool {
	switch d {
	case DimensionNone, DimensionExplicit, DimensionTyped:
		return true
	}
	return false
}

// Validation failure codes carried on apierrors.ValidationError.
const (
	CodeMissingSource            = "MissingSource"
	CodeEmptyFrameworkRecord     = "EmptyFrameworkRecord"
	CodeUnknownFrameworkCode     = "UnknownFrameworkCode"
	CodeIncompleteDisclosure     = "IncompleteDisclosure"
	CodeIncompleteDatapoint      = "IncompleteDatapoint"
	CodeIncompleteValidationRule = "IncompleteValidationRule"
	CodeMissingVersionTag        = "MissingVersionTag"
)

// DisclosureInput is one disclosure row of an ingestion payload.
type DisclosureInput struct {
	DisclosureID       string   `json:"disclosureId"`
	Title              string   `json:"title"`
	Level              int      `json:"level"`
	MandatoryFor       []string `json:"mandatoryFor,omitempty"`
	SectorSpecific     bool     `json:"sectorSpecific"`
	ParentDisclosureID string   `json:"parentDisclosureId,omitempty"`
}

// DatapointInput is one datapoint row of an ingestion payload.
type DatapointInput struct {
	Code          string        `json:"code"`
	Label         string        `json:"label"`
	DataType      string        `json:"dataType"`
	Unit          string        `json:"unit,omitempty"`
	AllowedValues []string      `json:"allowedValues,omitempty"`
	DisclosureID  string        `json:"disclosureId,omitempty"`
	DimensionType DimensionType `json:"dimensionType"`
}

// ValidationRuleInput is one validation-rule row of an ingestion payload.
type ValidationRuleInput struct {
	RuleCode      string        `json:"ruleCode"`
	Severity      Severity      `json:"severity"`
	AssertionType AssertionType `json:"assertionType"`
	Expression    string        `json:"expression"`
	DisclosureID  string        `json:"disclosureId,omitempty"`
}

// Payload is one validated ingestion submission: a framework version plus
// the full replacement sets of its disclosures, datapoints, and rules.
// This is also the JSON wire format accepted by POST /ingestions.
type Payload struct {
	FrameworkCode   FrameworkCode         `json:"frameworkCode"`
	VersionTag      string                `json:"versionTag"`
	SourceURL       string                `json:"sourceUrl"`
	EffectiveFrom   *time.Time            `json:"effectiveFrom,omitempty"`
	PackageChecksum string                `json:"packageChecksum,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Disclosures     []DisclosureInput     `json:"disclosures"`
	Datapoints      []DatapointInput      `json:"datapoints"`
	ValidationRules []ValidationRuleInput `json:"validationRules"`
}

// Validate checks a wire-format payload against the same rules the tabular
// builder enforces. Rows are cited as 1-based array positions. It must pass
// before any store mutation.
func (p *Payload) Validate() error {
	if !p.FrameworkCode.IsValid() {
		return &apierrors.ValidationError{
			Code:    CodeUnknownFrameworkCode,
			Source:  "framework",
			Message: fmt.Sprintf("framework code %q is not a supported standard", p.FrameworkCode),
		}
	}
	if p.VersionTag == "" {
		return &apierrors.ValidationError{
			Code:    CodeMissingVersionTag,
			Source:  "framework",
			Message: "versionTag is required",
		}
	}

	for i := range p.Disclosures {
		d := &p.Disclosures[i]
		if d.DisclosureID == "" || d.Title == "" {
			return incompleteDisclosure(i + 1)
		}
		if d.Level == 0 {
			d.Level = defaultDisclosureLevel
		}
	}

	for i := range p.Datapoints {
		dp := &p.Datapoints[i]
		if dp.Code == "" || dp.Label == "" || dp.DataType == "" {
			return incompleteDatapoint(i + 1)
		}
		if dp.DimensionType == "" {
			dp.DimensionType = DimensionNone
		}
		if !dp.DimensionType.IsValid() {
			return &apierrors.ValidationError{
				Code:    CodeIncompleteDatapoint,
				Source:  "datapoints",
				Row:     i + 1,
				Message: fmt.Sprintf("unknown dimensionType %q", dp.DimensionType),
			}
		}
	}

	for i := range p.ValidationRules {
		r := &p.ValidationRules[i]
		if r.RuleCode == "" || r.Severity == "" || r.AssertionType == "" || r.Expression == "" {
			return incompleteRule(i + 1)
		}
		if !r.Severity.IsValid() {
			return &apierrors.ValidationError{
				Code:    CodeIncompleteValidationRule,
				Source:  "validation-rules",
				Row:     i + 1,
				Message: fmt.Sprintf("unknown severity %q", r.Severity),
			}
		}
		if !r.AssertionType.IsValid() {
			return &apierrors.ValidationError{
				Code:    CodeIncompleteValidationRule,
				Source:  "validation-rules",
				Row:     i + 1,
				Message: fmt.Sprintf("unknown assertionType %q", r.AssertionType),
			}
		}
	}

	return nil
}

func incompleteDisclosure(row int) error {
	return &apierrors.ValidationError{
		Code:    CodeIncompleteDisclosure,
		Source:  "disclosures",
		Row:     row,
		Message: "disclosureId and title are required",
	}
}

func incompleteDatapoint(row int) error {
	return &apierrors.ValidationError{
		Code:    CodeIncompleteDatapoint,
		Source:  "datapoints",
		Row:     row,
		Message: "code, label, and dataType are required",
	}
}

func incompleteRule(row int) error {
	return &apierrors.ValidationError{
		Code:    CodeIncompleteValidationRule,
		Source:  "validation-rules",
		Row:     row,
		Message: "ruleCode, severity, assertionType, and expression are required",
	}
}
