package audit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openesg/standards-registry/pkg/authz"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestMiddlewareRecordsMutations(t *testing.T) {
	store := setupTestStore(t)
	cfg := DefaultConfig()

	handler := Middleware(store, cfg, nil)(okHandler(http.StatusCreated))
	wrapped := authz.IdentityMiddleware()(handler)

	req := httptest.NewRequest(http.MethodPost, "/ingestions", nil)
	req.Header.Set("X-Remote-User", "alice")
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	events, _, _, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "registry.ingestion.requested", events[0].EventType)
	assert.Equal(t, "alice", events[0].Actor)
	assert.Equal(t, "post", events[0].Action)
	assert.Equal(t, "success", events[0].Outcome)
	assert.Equal(t, http.StatusCreated, events[0].StatusCode)
}

func TestMiddlewareSkipsReads(t *testing.T) {
	store := setupTestStore(t)

	handler := Middleware(store, DefaultConfig(), nil)(okHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "/frameworks", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	_, _, total, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestMiddlewareOutcomes(t *testing.T) {
	store := setupTestStore(t)

	cases := []struct {
		status  int
		outcome string
	}{
		{http.StatusCreated, "success"},
		{http.StatusBadRequest, "failure"},
		{http.StatusForbidden, "denied"},
	}
	for _, tc := range cases {
		handler := Middleware(store, DefaultConfig(), nil)(okHandler(tc.status))
		req := httptest.NewRequest(http.MethodPost, "/ingestions", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	events, _, _, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	require.Len(t, events, len(cases))

	outcomes := map[string]int{}
	for _, e := range events {
		outcomes[e.Outcome]++
	}
	assert.Equal(t, map[string]int{"success": 1, "failure": 1, "denied": 1}, outcomes)
}

func TestMiddlewareLogDeniedDisabled(t *testing.T) {
	store := setupTestStore(t)
	cfg := DefaultConfig()
	cfg.LogDenied = false

	handler := Middleware(store, cfg, nil)(okHandler(http.StatusForbidden))
	req := httptest.NewRequest(http.MethodDelete, "/ingestions", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	_, _, total, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestMiddlewareDisabled(t *testing.T) {
	store := setupTestStore(t)
	cfg := DefaultConfig()
	cfg.Enabled = false

	handler := Middleware(store, cfg, nil)(okHandler(http.StatusCreated))
	req := httptest.NewRequest(http.MethodPost, "/ingestions", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	_, _, total, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	assert.Zero(t, total)
}
