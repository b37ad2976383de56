package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyContext() *ProjectContext {
	return &ProjectContext{
		ProjectID:          "p1",
		AssessmentSections: map[Standard]map[string]bool{},
		DatapointCodes:     map[string]bool{},
	}
}

func TestEvaluateTCFDPartial(t *testing.T) {
	ctx := emptyContext()
	ctx.AssessmentSections[StandardTCFD] = map[string]bool{
		"governance": true,
		"strategy":   true,
	}

	result := Evaluate(StandardTCFD, ctx)

	assert.Equal(t, StandardTCFD, result.Standard)
	assert.True(t, result.Supported)
	assert.Equal(t, 40, result.CoverageScore)
	assert.Equal(t, StatusInProgress, result.Status)
	assert.Equal(t, []string{
		"Risk management disclosures",
		"Metrics and targets",
		"Supporting evidence",
	}, result.MissingRequirements)
}

func TestEvaluateTCFDComplete(t *testing.T) {
	ctx := emptyContext()
	ctx.AssessmentSections[StandardTCFD] = map[string]bool{
		"governance":     true,
		"strategy":       true,
		"riskManagement": true,
		"metricsTargets": true,
	}
	ctx.EvidenceCount = 2

	result := Evaluate(StandardTCFD, ctx)

	assert.Equal(t, 100, result.CoverageScore)
	assert.Equal(t, StatusReady, result.Status)
	assert.Empty(t, result.MissingRequirements)
}

func TestEvaluateEmptyProject(t *testing.T) {
	ctx := emptyContext()

	results, overall := EvaluateAll(ctx)

	require.Len(t, results, len(Standards))
	for i, result := range results {
		assert.Equal(t, Standards[i], result.Standard)
		assert.False(t, result.Supported)
		assert.Equal(t, 0, result.CoverageScore)
		assert.Equal(t, StatusNotStarted, result.Status)
		assert.Len(t, result.MissingRequirements, len(Requirements(result.Standard)))
	}
	assert.Equal(t, 0, overall)
}

func TestEvaluateIFRSCrossStandardSections(t *testing.T) {
	// The IFRS readiness requirement reads the ISSB assessment. With only
	// the S1 section populated the combined requirement fails.
	ctx := emptyContext()
	ctx.AssessmentSections[StandardISSB] = map[string]bool{"ifrsS1": true}

	result := Evaluate(StandardIFRS, ctx)
	assert.Contains(t, result.MissingRequirements, "IFRS S1/S2 readiness")

	ctx.AssessmentSections[StandardISSB]["ifrsS2"] = true
	result = Evaluate(StandardIFRS, ctx)
	assert.NotContains(t, result.MissingRequirements, "IFRS S1/S2 readiness")
}

func TestEvaluateIFRSDatapointRequirement(t *testing.T) {
	ctx := emptyContext()
	ctx.DatapointCodes[codeScope1GHG] = true
	ctx.DatapointCodes[codeScope2GHG] = true

	// Both scopes without a financial impact datapoint: AllOf alone passes.
	result := Evaluate(StandardIFRS, ctx)
	assert.NotContains(t, result.MissingRequirements, "Climate and financial impact datapoints")

	// One scope alone fails AllOf, but a financial impact code satisfies
	// the AnyOf branch.
	ctx.DatapointCodes = map[string]bool{codeScope1GHG: true}
	result = Evaluate(StandardIFRS, ctx)
	assert.Contains(t, result.MissingRequirements, "Climate and financial impact datapoints")

	ctx.DatapointCodes[codeFinImpactCurrent] = true
	result = Evaluate(StandardIFRS, ctx)
	assert.NotContains(t, result.MissingRequirements, "Climate and financial impact datapoints")
}

func TestEvaluateDatapointPrefix(t *testing.T) {
	ctx := emptyContext()
	ctx.DatapointCodes["ESRS_E1_1"] = true

	result := Evaluate(StandardCSRD, ctx)
	assert.NotContains(t, result.MissingRequirements, "Tagged ESRS datapoints")

	// GRI has no GRI_-prefixed tag.
	result = Evaluate(StandardGRI, ctx)
	assert.Contains(t, result.MissingRequirements, "Tagged GRI datapoints")
}

func TestEvaluateCorrectiveAction(t *testing.T) {
	ctx := emptyContext()
	ctx.WorkflowCount = 1

	// A workflow without evidence is not a corrective action process.
	result := Evaluate(StandardRJC, ctx)
	assert.Contains(t, result.MissingRequirements, "Corrective action process")

	ctx.EvidenceCount = 1
	result = Evaluate(StandardRJC, ctx)
	assert.NotContains(t, result.MissingRequirements, "Corrective action process")
}

func TestEvaluateAllOverallScore(t *testing.T) {
	ctx := emptyContext()
	ctx.AssessmentSections[StandardTCFD] = map[string]bool{
		"governance": true,
		"strategy":   true,
	}

	_, overall := EvaluateAll(ctx)

	// Only TCFD scores (40); mean over 7 standards rounds to 6.
	assert.Equal(t, 6, overall)
}

func TestNextStepsSkipsReady(t *testing.T) {
	ctx := emptyContext()
	ctx.AssessmentSections[StandardTCFD] = map[string]bool{
		"governance":     true,
		"strategy":       true,
		"riskManagement": true,
		"metricsTargets": true,
	}
	ctx.EvidenceCount = 1

	results, _ := EvaluateAll(ctx)
	steps := NextSteps(results)

	require.Len(t, steps, len(Standards)-1)
	for _, step := range steps {
		assert.NotEqual(t, StandardTCFD, step.Standard)
		assert.NotEmpty(t, step.MissingRequirements)
		assert.LessOrEqual(t, len(step.MissingRequirements), maxNextStepLabels)
	}
}

func TestStatusForScore(t *testing.T) {
	assert.Equal(t, StatusReady, StatusForScore(100))
	assert.Equal(t, StatusReady, StatusForScore(80))
	assert.Equal(t, StatusInProgress, StatusForScore(79))
	assert.Equal(t, StatusInProgress, StatusForScore(35))
	assert.Equal(t, StatusNotStarted, StatusForScore(34))
	assert.Equal(t, StatusNotStarted, StatusForScore(0))
}

func TestRequirementTableCoversAllStandards(t *testing.T) {
	for _, std := range Standards {
		require.NotEmpty(t, Requirements(std), "standard %s has no requirements", std)
		require.NotEmpty(t, availableInputs[std], "standard %s has no inputs listed", std)
	}
}
