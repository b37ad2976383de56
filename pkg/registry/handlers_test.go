package registry

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openesg/standards-registry/pkg/audit"
	"github.com/openesg/standards-registry/pkg/authz"
	"github.com/openesg/standards-registry/pkg/ingest"
)

func setupTestAPI(t *testing.T, authorizer authz.Authorizer) (*RegistryStore, http.Handler) {
	t.Helper()
	store := setupTestStore(t)

	root := chi.NewRouter()
	root.Use(authz.IdentityMiddleware())
	root.Mount("/", NewRouter(store, nil, authorizer))
	return store, root
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIngestEndpoint(t *testing.T) {
	store, handler := setupTestAPI(t, authz.AllowAll{})

	rec := postJSON(t, handler, "/ingestions", samplePayload(), map[string]string{
		"X-Remote-User": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "GRI", result.Framework.Code)
	assert.Equal(t, "alice", result.Job.RequestedBy)

	jobs, err := store.ListJobs(0)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestIngestEndpointValidation(t *testing.T) {
	store, handler := setupTestAPI(t, authz.AllowAll{})

	payload := samplePayload()
	payload.FrameworkCode = "BOGUS"

	rec := postJSON(t, handler, "/ingestions", payload, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UnknownFrameworkCode")

	// Validation failures leave no trace in the job log.
	jobs, err := store.ListJobs(0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestIngestEndpointRowError(t *testing.T) {
	_, handler := setupTestAPI(t, authz.AllowAll{})

	payload := samplePayload()
	payload.Datapoints[1].DataType = ""

	rec := postJSON(t, handler, "/ingestions", payload, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "IncompleteDatapoint")
	assert.Contains(t, rec.Body.String(), "row 2")
}

func TestIngestEndpointMalformedBody(t *testing.T) {
	_, handler := setupTestAPI(t, authz.AllowAll{})

	req := httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestEndpointAuthz(t *testing.T) {
	_, handler := setupTestAPI(t, &authz.GroupAuthorizer{AdminGroup: "registry-admins"})

	// No admin group: denied before any parsing of the payload.
	rec := postJSON(t, handler, "/ingestions", samplePayload(), map[string]string{
		"X-Remote-User": "mallory",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admin group member: allowed.
	rec = postJSON(t, handler, "/ingestions", samplePayload(), map[string]string{
		"X-Remote-User":  "alice",
		"X-Remote-Group": "registry-admins",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestIngestTabularEndpoint(t *testing.T) {
	_, handler := setupTestAPI(t, authz.AllowAll{})

	files := map[string]string{
		ingest.SourceFramework: "code,versionTag,sourceUrl\n" +
			"TCFD,2017,https://www.fsb-tcfd.org\n",
		ingest.SourceDisclosures: "disclosureId,title,level\n" +
			"TCFD-GOV-A,Board oversight,1\n",
		ingest.SourceDatapoints: "code,label,dataType\n" +
			"TCFD_GOV_A_DESC,Oversight description,narrative\n",
		ingest.SourceValidationRules: "ruleCode,severity,assertionType,expression\n" +
			"TCFD-R1,ERROR,existenceAssertion,exists(TCFD_GOV_A_DESC)\n",
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name+".csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/ingestions/tabular", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "TCFD", result.Framework.Code)
	assert.Equal(t, "2017", result.Version.VersionTag)
	assert.Equal(t, IngestCounts{Disclosures: 1, Datapoints: 1, ValidationRules: 1}, result.Counts)
}

func TestIngestTabularEndpointMissingSource(t *testing.T) {
	_, handler := setupTestAPI(t, authz.AllowAll{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(ingest.SourceFramework, "framework.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("code,versionTag\nTCFD,2017\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/ingestions/tabular", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MissingSource")
}

func TestReadEndpoints(t *testing.T) {
	store, handler := setupTestAPI(t, authz.AllowAll{})

	_, err := store.Ingest(samplePayload(), "alice")
	require.NoError(t, err)

	for _, path := range []string{
		"/ingestions",
		"/frameworks",
		"/frameworks/GRI/versions",
		"/frameworks/GRI/versions/2021",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "GET %s: %s", path, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/frameworks/ISSB/versions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestEndpointAudits(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	auditStore := audit.NewStore(db)
	require.NoError(t, auditStore.AutoMigrate())

	store := NewRegistryStore(db)
	require.NoError(t, store.AutoMigrate())

	root := chi.NewRouter()
	root.Use(authz.IdentityMiddleware())
	root.Mount("/", NewRouter(store, auditStore, authz.AllowAll{}))

	rec := postJSON(t, root, "/ingestions", samplePayload(), map[string]string{
		"X-Remote-User": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	events, _, total, err := auditStore.List(audit.ListFilter{}, 10, "")
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "registry.ingestion.succeeded", events[0].EventType)
	assert.Equal(t, "alice", events[0].Actor)
	assert.Equal(t, "GRI", events[0].FrameworkCode)
}
