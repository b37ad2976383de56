package readiness

// RequirementKind selects how a requirement predicate is evaluated.
type RequirementKind string

const (
	// KindAssessmentSections passes when every named section is populated on
	// the latest assessment for the requirement's standard.
	KindAssessmentSections RequirementKind = "assessmentSections"
	// KindDatapointPrefix passes when at least one tagged datapoint code
	// carries the prefix.
	KindDatapointPrefix RequirementKind = "datapointPrefix"
	// KindDatapointCodes passes when all AllOf codes are present, or when
	// any AnyOf code is present.
	KindDatapointCodes RequirementKind = "datapointCodes"
	// KindEvidencePresent passes when the project has at least one piece of
	// supporting evidence.
	KindEvidencePresent RequirementKind = "evidencePresent"
	// KindCorrectiveAction passes when the project has both a running
	// workflow and at least one piece of evidence.
	KindCorrectiveAction RequirementKind = "correctiveAction"
)

// Requirement is one named boolean predicate of a standard's requirement
// list. Requirements are data, not code branches: every standard's logic is
// expressed through the same five kinds.
type Requirement struct {
	Label string
	Kind  RequirementKind

	// AssessmentStandard names the standard whose assessment the sections
	// are read from. Empty means the standard being scored; IFRS uses this
	// to reference the ISSB assessment.
	AssessmentStandard Standard
	Sections           []string

	Prefix string

	AllOf []string
	AnyOf []string
}

// Datapoint codes referenced by the IFRS requirement list.
const (
	codeScope1GHG        = "ISSB_S2_GHG_SCOPE1"
	codeScope2GHG        = "ISSB_S2_GHG_SCOPE2"
	codeFinImpactCurrent = "ISSB_S2_FIN_IMPACT_CURRENT"
	codeFinImpactFuture  = "ISSB_S2_FIN_IMPACT_ANTICIPATED"
)

// requirementTable is the fixed, ordered requirement list per standard.
// Order matters: missing-requirement labels are reported in declared order.
var requirementTable = map[Standard][]Requirement{
	StandardTCFD: {
		{Label: "Governance disclosures", Kind: KindAssessmentSections, Sections: []string{"governance"}},
		{Label: "Strategy disclosures", Kind: KindAssessmentSections, Sections: []string{"strategy"}},
		{Label: "Risk management disclosures", Kind: KindAssessmentSections, Sections: []string{"riskManagement"}},
		{Label: "Metrics and targets", Kind: KindAssessmentSections, Sections: []string{"metricsTargets"}},
		{Label: "Supporting evidence", Kind: KindEvidencePresent},
	},
	StandardCSRD: {
		{Label: "Double materiality assessment", Kind: KindAssessmentSections, Sections: []string{"doubleMateriality"}},
		{Label: "ESRS general disclosures", Kind: KindAssessmentSections, Sections: []string{"esrsGeneral"}},
		{Label: "Value chain due diligence", Kind: KindAssessmentSections, Sections: []string{"valueChain"}},
		{Label: "Tagged ESRS datapoints", Kind: KindDatapointPrefix, Prefix: "ESRS_"},
		{Label: "Supporting evidence", Kind: KindEvidencePresent},
	},
	StandardISSB: {
		{Label: "IFRS S1 general requirements", Kind: KindAssessmentSections, Sections: []string{"ifrsS1"}},
		{Label: "IFRS S2 climate disclosures", Kind: KindAssessmentSections, Sections: []string{"ifrsS2"}},
		{Label: "Tagged ISSB datapoints", Kind: KindDatapointPrefix, Prefix: "ISSB_"},
		{Label: "Supporting evidence", Kind: KindEvidencePresent},
	},
	StandardIFRS: {
		{Label: "IFRS S1/S2 readiness", Kind: KindAssessmentSections, AssessmentStandard: StandardISSB, Sections: []string{"ifrsS1", "ifrsS2"}},
		{
			Label: "Climate and financial impact datapoints",
			Kind:  KindDatapointCodes,
			AllOf: []string{codeScope1GHG, codeScope2GHG},
			AnyOf: []string{codeFinImpactCurrent, codeFinImpactFuture},
		},
		{Label: "Governance oversight", Kind: KindAssessmentSections, AssessmentStandard: StandardISSB, Sections: []string{"governance"}},
		{Label: "Risk and opportunity processes", Kind: KindCorrectiveAction},
		{Label: "Supporting evidence", Kind: KindEvidencePresent},
	},
	StandardGRI: {
		{Label: "Statement of use", Kind: KindAssessmentSections, Sections: []string{"statementOfUse"}},
		{Label: "Material topics disclosures", Kind: KindAssessmentSections, Sections: []string{"materialTopics"}},
		{Label: "Tagged GRI datapoints", Kind: KindDatapointPrefix, Prefix: "GRI_"},
		{Label: "Supporting evidence", Kind: KindEvidencePresent},
	},
	StandardSASB: {
		{Label: "Industry standard selection", Kind: KindAssessmentSections, Sections: []string{"industrySelection"}},
		{Label: "Disclosure topic coverage", Kind: KindAssessmentSections, Sections: []string{"disclosureTopics"}},
		{Label: "Tagged SASB metrics", Kind: KindDatapointPrefix, Prefix: "SASB_"},
		{Label: "Supporting evidence", Kind: KindEvidencePresent},
	},
	StandardRJC: {
		{Label: "Code of practices assessment", Kind: KindAssessmentSections, Sections: []string{"codeOfPractices"}},
		{Label: "Provenance claims", Kind: KindAssessmentSections, Sections: []string{"provenance"}},
		{Label: "Tagged RJC datapoints", Kind: KindDatapointPrefix, Prefix: "RJC_"},
		{Label: "Corrective action process", Kind: KindCorrectiveAction},
		{Label: "Supporting evidence", Kind: KindEvidencePresent},
	},
}

// availableInputs documents, per standard, which abstract input categories
// the engine considers. Purely informational for the caller.
var availableInputs = map[Standard][]string{
	StandardTCFD: {"assessments", "evidence"},
	StandardCSRD: {"assessments", "datapoints", "evidence"},
	StandardISSB: {"assessments", "datapoints", "evidence"},
	StandardIFRS: {"assessments", "datapoints", "workflows", "evidence"},
	StandardGRI:  {"assessments", "datapoints", "evidence"},
	StandardSASB: {"assessments", "datapoints", "evidence"},
	StandardRJC:  {"assessments", "datapoints", "workflows", "evidence"},
}

// Requirements returns the fixed requirement list for a standard.
func Requirements(std Standard) []Requirement {
	return requirementTable[std]
}

// Passes evaluates the requirement against a project context. Absent data
// is a failed predicate, never an error.
func (req Requirement) Passes(ctx *ProjectContext, std Standard) bool {
	switch req.Kind {
	case KindAssessmentSections:
		target := req.AssessmentStandard
		if target == "" {
			target = std
		}
		for _, section := range req.Sections {
			if !ctx.HasSection(target, section) {
				return false
			}
		}
		return true

	case KindDatapointPrefix:
		for code := range ctx.DatapointCodes {
			if len(code) >= len(req.Prefix) && code[:len(req.Prefix)] == req.Prefix {
				return true
			}
		}
		return false

	case KindDatapointCodes:
		if len(req.AllOf) > 0 {
			all := true
			for _, code := range req.AllOf {
				if !ctx.HasDatapoint(code) {
					all = false
					break
				}
			}
			if all {
				return true
			}
		}
		for _, code := range req.AnyOf {
			if ctx.HasDatapoint(code) {
				return true
			}
		}
		return false

	case KindEvidencePresent:
		return ctx.EvidenceCount > 0

	case KindCorrectiveAction:
		return ctx.WorkflowCount > 0 && ctx.EvidenceCount > 0

	default:
		return false
	}
}
