package registry

import (
	"github.com/go-chi/chi/v5"

	"github.com/openesg/standards-registry/pkg/audit"
	"github.com/openesg/standards-registry/pkg/authz"
)

// NewRouter creates a chi router with the registry API routes. Mutating
// routes require the "ingest" verb on the "registry" resource; reads are
// open. auditStore may be nil to disable ingestion audit events.
func NewRouter(store *RegistryStore, auditStore *audit.Store, authorizer authz.Authorizer) chi.Router {
	if authorizer == nil {
		authorizer = authz.AllowAll{}
	}

	r := chi.NewRouter()

	r.Route("/ingestions", func(r chi.Router) {
		r.Get("/", listJobsHandler(store))

		r.Group(func(r chi.Router) {
			r.Use(authz.RequirePermission(authorizer, "registry", "ingest"))
			r.Post("/", ingestHandler(store, auditStore))
			r.Post("/tabular", ingestTabularHandler(store, auditStore))
		})
	})

	r.Route("/frameworks", func(r chi.Router) {
		r.Get("/", listFrameworksHandler(store))
		r.Get("/{code}/versions", listVersionsHandler(store))
		r.Get("/{code}/versions/{tag}", getVersionHandler(store))
	})

	return r
}
