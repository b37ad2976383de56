package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openesg/standards-registry/pkg/apierrors"
	"github.com/openesg/standards-registry/pkg/tabular"
)

// Source names of the four required tabular inputs.
const (
	SourceFramework       = "framework"
	SourceDisclosures     = "disclosures"
	SourceDatapoints      = "datapoints"
	SourceValidationRules = "validation-rules"
)

// RequiredSources lists the inputs every submission must carry.
var RequiredSources = []string{
	SourceFramework,
	SourceDisclosures,
	SourceDatapoints,
	SourceValidationRules,
}

const defaultDisclosureLevel = 2

// BuildPayload assembles a validated ingestion payload from the four named
// tabular sources. It is a pure transformation: failures are returned as
// typed validation errors citing the source and 1-based row line, and no
// partial payload is ever returned.
//
// The framework source must yield at least one row; only the first row is
// used and any additional rows are ignored.
func BuildPayload(sources map[string][]tabular.Record) (*Payload, error) {
	for _, name := range RequiredSources {
		if _, ok := sources[name]; !ok {
			return nil, &apierrors.ValidationError{
				Code:    CodeMissingSource,
				Source:  name,
				Message: "required source is missing",
			}
		}
	}

	frameworkRows := sources[SourceFramework]
	if len(frameworkRows) == 0 {
		return nil, &apierrors.ValidationError{
			Code:    CodeEmptyFrameworkRecord,
			Source:  SourceFramework,
			Message: "framework source has no data rows",
		}
	}
	fw := frameworkRows[0]

	code := FrameworkCode(strings.ToUpper(fw.Get("code")))
	if !code.IsValid() {
		return nil, &apierrors.ValidationError{
			Code:    CodeUnknownFrameworkCode,
			Source:  SourceFramework,
			Row:     fw.Line,
			Message: fmt.Sprintf("framework code %q is not a supported standard", fw.Get("code")),
		}
	}

	payload := &Payload{
		FrameworkCode:   code,
		VersionTag:      fw.Get("versionTag"),
		SourceURL:       fw.Get("sourceUrl"),
		PackageChecksum: fw.Get("packageChecksum"),
		Notes:           fw.Get("notes"),
	}
	if payload.VersionTag == "" {
		return nil, &apierrors.ValidationError{
			Code:    CodeMissingVersionTag,
			Source:  SourceFramework,
			Row:     fw.Line,
			Message: "versionTag is required",
		}
	}
	if raw := fw.Get("effectiveFrom"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return nil, &apierrors.ValidationError{
				Code:    CodeEmptyFrameworkRecord,
				Source:  SourceFramework,
				Row:     fw.Line,
				Message: fmt.Sprintf("invalid effectiveFrom %q", raw),
			}
		}
		payload.EffectiveFrom = &t
	}

	for _, row := range sources[SourceDisclosures] {
		d, err := buildDisclosure(row)
		if err != nil {
			return nil, err
		}
		payload.Disclosures = append(payload.Disclosures, d)
	}

	for _, row := range sources[SourceDatapoints] {
		dp, err := buildDatapoint(row)
		if err != nil {
			return nil, err
		}
		payload.Datapoints = append(payload.Datapoints, dp)
	}

	for _, row := range sources[SourceValidationRules] {
		r, err := buildValidationRule(row)
		if err != nil {
			return nil, err
		}
		payload.ValidationRules = append(payload.ValidationRules, r)
	}

	return payload, nil
}

func buildDisclosure(row tabular.Record) (DisclosureInput, error) {
	id := row.Get("disclosureId")
	title := row.Get("title")
	if id == "" || title == "" {
		return DisclosureInput{}, &apierrors.ValidationError{
			Code:    CodeIncompleteDisclosure,
			Source:  SourceDisclosures,
			Row:     row.Line,
			Message: "disclosureId and title are required",
		}
	}

	level := defaultDisclosureLevel
	if raw := row.Get("level"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			level = v
		}
	}

	return DisclosureInput{
		DisclosureID:       id,
		Title:              title,
		Level:              level,
		MandatoryFor:       splitList(row.Get("mandatoryFor")),
		SectorSpecific:     parseBool(row.Get("sectorSpecific")),
		ParentDisclosureID: row.Get("parentDisclosureId"),
	}, nil
}

func buildDatapoint(row tabular.Record) (DatapointInput, error) {
	code := row.Get("code")
	label := row.Get("label")
	dataType := row.Get("dataType")
	if code == "" || label == "" || dataType == "" {
		return DatapointInput{}, &apierrors.ValidationError{
			Code:    CodeIncompleteDatapoint,
			Source:  SourceDatapoints,
			Row:     row.Line,
			Message: "code, label, and dataType are required",
		}
	}

	dimension := DimensionType(row.Get("dimensionType"))
	if dimension == "" {
		dimension = DimensionNone
	}
	if !dimension.IsValid() {
		return DatapointInput{}, &apierrors.ValidationError{
			Code:    CodeIncompleteDatapoint,
			Source:  SourceDatapoints,
			Row:     row.Line,
			Message: fmt.Sprintf("unknown dimensionType %q", row.Get("dimensionType")),
		}
	}

	return DatapointInput{
		Code:          code,
		Label:         label,
		DataType:      dataType,
		Unit:          row.Get("unit"),
		AllowedValues: splitList(row.Get("allowedValues")),
		DisclosureID:  row.Get("disclosureId"),
		DimensionType: dimension,
	}, nil
}

func buildValidationRule(row tabular.Record) (ValidationRuleInput, error) {
	ruleCode := row.Get("ruleCode")
	severity := row.Get("severity")
	assertion := row.Get("assertionType")
	expression := row.Get("expression")
	if ruleCode == "" || severity == "" || assertion == "" || expression == "" {
		return ValidationRuleInput{}, &apierrors.ValidationError{
			Code:    CodeIncompleteValidationRule,
			Source:  SourceValidationRules,
			Row:     row.Line,
			Message: "ruleCode, severity, assertionType, and expression are required",
		}
	}

	sev := Severity(strings.ToUpper(severity))
	if !sev.IsValid() {
		return ValidationRuleInput{}, &apierrors.ValidationError{
			Code:    CodeIncompleteValidationRule,
			Source:  SourceValidationRules,
			Row:     row.Line,
			Message: fmt.Sprintf("unknown severity %q", severity),
		}
	}

	at := AssertionType(assertion)
	if !at.IsValid() {
		return ValidationRuleInput{}, &apierrors.ValidationError{
			Code:    CodeIncompleteValidationRule,
			Source:  SourceValidationRules,
			Row:     row.Line,
			Message: fmt.Sprintf("unknown assertionType %q", assertion),
		}
	}

	return ValidationRuleInput{
		RuleCode:      ruleCode,
		Severity:      sev,
		AssertionType: at,
		Expression:    expression,
		DisclosureID:  row.Get("disclosureId"),
	}, nil
}

// splitList parses a pipe-delimited cell into an ordered list of trimmed
// tokens. Empty tokens are dropped; duplicates are kept.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, token := range strings.Split(raw, "|") {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

// parseBool accepts case-insensitive "true", "1", or "yes" as true.
// Everything else, including the empty string, is false.
func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// parseDate accepts RFC 3339 date-times and bare dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
