package readiness

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openesg/standards-registry/pkg/apierrors"
)

// Report is the full readiness response for one project: one entry per
// standard in fixed order, the unweighted mean score, and the next steps
// toward the standards that are not yet ready.
type Report struct {
	ProjectID    string              `json:"projectId"`
	OverallScore int                 `json:"overallScore"`
	Standards    []StandardReadiness `json:"standards"`
	NextSteps    []NextStep          `json:"nextSteps"`
}

// ReportHandler handles GET /projects/{projectId}/readiness.
func ReportHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectId")

		ctx, err := store.LoadContext(projectID)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		results, overall := EvaluateAll(ctx)
		writeJSON(w, http.StatusOK, Report{
			ProjectID:    projectID,
			OverallScore: overall,
			Standards:    results,
			NextSteps:    NextSteps(results),
		})
	}
}

// StandardHandler handles GET /projects/{projectId}/readiness/{standard}.
func StandardHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectId")
		std := Standard(chi.URLParam(r, "standard"))

		known := false
		for _, s := range Standards {
			if s == std {
				known = true
				break
			}
		}
		if !known {
			writeError(w, http.StatusNotFound, "unknown standard: "+string(std))
			return
		}

		ctx, err := store.LoadContext(projectID)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, Evaluate(std, ctx))
	}
}

// Router creates a chi router for the readiness API, meant to be mounted
// under /projects. All routes are read-only.
func Router(store *Store) chi.Router {
	r := chi.NewRouter()
	r.Get("/{projectId}/readiness", ReportHandler(store))
	r.Get("/{projectId}/readiness/{standard}", StandardHandler(store))
	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeTaxonomyError(w http.ResponseWriter, err error) {
	writeError(w, apierrors.HTTPStatus(err), apierrors.PublicMessage(err))
}
