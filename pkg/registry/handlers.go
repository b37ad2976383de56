package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openesg/standards-registry/pkg/apierrors"
	"github.com/openesg/standards-registry/pkg/audit"
	"github.com/openesg/standards-registry/pkg/authz"
	"github.com/openesg/standards-registry/pkg/ingest"
	"github.com/openesg/standards-registry/pkg/tabular"
)

// maxTabularUpload caps one multipart ingestion submission (8 MiB).
const maxTabularUpload = 8 << 20

// ingestHandler handles POST /ingestions: a JSON wire-format payload.
// The payload is validated in full before any store mutation.
func ingestHandler(store *RegistryStore, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload ingest.Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		if err := payload.Validate(); err != nil {
			writeTaxonomyError(w, err)
			return
		}

		runIngest(w, r, store, auditStore, &payload)
	}
}

// ingestTabularHandler handles POST /ingestions/tabular: a multipart form
// with the four named CSV file parts. The files are parsed and assembled
// into a payload client-side of the store, so validation still precedes
// every write.
func ingestTabularHandler(store *RegistryStore, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxTabularUpload); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
			return
		}

		sources := make(map[string][]tabular.Record, len(ingest.RequiredSources))
		for _, name := range ingest.RequiredSources {
			file, _, err := r.FormFile(name)
			if err != nil {
				continue // builder reports the missing source
			}
			raw, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", name, err))
				return
			}
			records, err := tabular.Parse(string(raw))
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("parse %s: %v", name, err))
				return
			}
			sources[name] = records
		}

		payload, err := ingest.BuildPayload(sources)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		runIngest(w, r, store, auditStore, payload)
	}
}

// runIngest executes a validated payload and writes the result. On success
// it appends a best-effort audit event.
func runIngest(w http.ResponseWriter, r *http.Request, store *RegistryStore, auditStore *audit.Store, payload *ingest.Payload) {
	actor := "system"
	if id, ok := authz.IdentityFromContext(r.Context()); ok {
		actor = id.User
	}

	result, err := store.Ingest(payload, actor)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}

	if auditStore != nil {
		_ = auditStore.Append(&audit.EventRecord{
			ID:            uuid.New().String(),
			EventType:     "registry.ingestion.succeeded",
			Actor:         actor,
			FrameworkCode: result.Framework.Code,
			VersionTag:    result.Version.VersionTag,
			Action:        "ingest",
			Outcome:       "success",
			Details: audit.JSONAny{
				"checksum":        result.Job.Checksum,
				"disclosures":     result.Counts.Disclosures,
				"datapoints":      result.Counts.Datapoints,
				"validationRules": result.Counts.ValidationRules,
			},
			CreatedAt: time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusCreated, result)
}

// listJobsHandler handles GET /ingestions?limit=N.
func listJobsHandler(store *RegistryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 {
				limit = v
			}
		}

		jobs, err := store.ListJobs(limit)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"jobs":      jobs,
			"totalSize": len(jobs),
		})
	}
}

// listFrameworksHandler handles GET /frameworks.
func listFrameworksHandler(store *RegistryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frameworks, err := store.ListFrameworks()
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"frameworks": frameworks})
	}
}

// listVersionsHandler handles GET /frameworks/{code}/versions.
func listVersionsHandler(store *RegistryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		versions, err := store.ListVersions(code)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
	}
}

// getVersionHandler handles GET /frameworks/{code}/versions/{tag}.
func getVersionHandler(store *RegistryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		tag := chi.URLParam(r, "tag")
		detail, err := store.GetVersion(code, tag)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeTaxonomyError maps a taxonomy error to its status code and
// caller-facing message.
func writeTaxonomyError(w http.ResponseWriter, err error) {
	writeError(w, apierrors.HTTPStatus(err), apierrors.PublicMessage(err))
}
