package audit

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/openesg/standards-registry/pkg/authz"
)

// responseCapture wraps http.ResponseWriter to capture the status code.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Middleware records an audit event for every mutating registry request.
// It wraps the ResponseWriter to capture the status code, then appends an
// EventRecord after the handler completes. Audit writes are best-effort:
// a failed append is logged, never surfaced to the caller.
func Middleware(store *Store, cfg *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil || !cfg.Enabled || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !isMutation(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(capture, r)

			outcome := outcomeFromStatus(capture.statusCode)
			if outcome == "denied" && !cfg.LogDenied {
				return
			}

			actor := "system"
			if id, ok := authz.IdentityFromContext(r.Context()); ok {
				actor = id.User
			}

			event := &EventRecord{
				ID:         uuid.New().String(),
				EventType:  eventTypeForPath(r.URL.Path),
				Actor:      actor,
				Action:     strings.ToLower(r.Method),
				Outcome:    outcome,
				RequestID:  middleware.GetReqID(r.Context()),
				StatusCode: capture.statusCode,
				CreatedAt:  time.Now().UTC(),
			}
			if err := store.Append(event); err != nil {
				logger.Error("audit append failed", "error", err, "path", r.URL.Path)
			}
		})
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func outcomeFromStatus(status int) string {
	switch {
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return "denied"
	case status >= 400:
		return "failure"
	default:
		return "success"
	}
}

// eventTypeForPath classifies a request path into an audit event type.
func eventTypeForPath(path string) string {
	switch {
	case strings.Contains(path, "/ingestions"):
		return "registry.ingestion.requested"
	case strings.Contains(path, "/projects"):
		return "project.mutation"
	default:
		return "registry.request"
	}
}
