package readiness

import "math"

// Evaluate scores one standard against a project context. It is pure: the
// same context always yields the same result, and missing data fails
// predicates instead of raising errors.
func Evaluate(std Standard, ctx *ProjectContext) StandardReadiness {
	requirements := Requirements(std)

	passed := 0
	missing := []string{}
	for _, req := range requirements {
		if req.Passes(ctx, std) {
			passed++
		} else {
			missing = append(missing, req.Label)
		}
	}

	score := 0
	if len(requirements) > 0 {
		score = int(math.Round(100 * float64(passed) / float64(len(requirements))))
	}

	return StandardReadiness{
		Standard:            std,
		Supported:           passed > 0,
		CoverageScore:       score,
		Status:              StatusForScore(score),
		MissingRequirements: missing,
		AvailableInputs:     availableInputs[std],
	}
}

// EvaluateAll scores every standard in fixed order and returns the
// integer-rounded arithmetic mean of the coverage scores, unweighted.
func EvaluateAll(ctx *ProjectContext) ([]StandardReadiness, int) {
	results := make([]StandardReadiness, 0, len(Standards))
	sum := 0
	for _, std := range Standards {
		result := Evaluate(std, ctx)
		results = append(results, result)
		sum += result.CoverageScore
	}

	overall := int(math.Round(float64(sum) / float64(len(Standards))))
	return results, overall
}

// NextStep pairs a not-yet-ready standard with its first missing
// requirement labels.
type NextStep struct {
	Standard            Standard `json:"standard"`
	Status              Status   `json:"status"`
	MissingRequirements []string `json:"missingRequirements"`
}

// maxNextStepLabels caps how many missing-requirement labels one next-step
// entry carries.
const maxNextStepLabels = 5

// NextSteps lists, in report order, every standard that is not READY along
// with up to five of its missing requirement labels.
func NextSteps(results []StandardReadiness) []NextStep {
	steps := []NextStep{}
	for _, result := range results {
		if result.Status == StatusReady {
			continue
		}
		labels := result.MissingRequirements
		if len(labels) > maxNextStepLabels {
			labels = labels[:maxNextStepLabels]
		}
		steps = append(steps, NextStep{
			Standard:            result.Standard,
			Status:              result.Status,
			MissingRequirements: labels,
		})
	}
	return steps
}
