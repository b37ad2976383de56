package authz

import (
	"encoding/json"
	"net/http"
	"os"
)

// Authorizer decides whether an identity may perform a verb on a resource.
type Authorizer interface {
	Authorize(id Identity, resource, verb string) bool
}

// AllowAll permits everything. Used when auth is disabled (development).
type AllowAll struct{}

// Authorize always returns true.
func (AllowAll) Authorize(Identity, string, string) bool { return true }

// GroupAuthorizer grants registry administration to members of AdminGroup
// and read access to everyone. Mutating verbs on any resource require the
// admin group.
type GroupAuthorizer struct {
	AdminGroup string
}

// DefaultAdminGroup is the group granted registry administration when
// REGISTRY_ADMIN_GROUP is unset.
const DefaultAdminGroup = "registry-admins"

// NewGroupAuthorizerFromEnv builds a GroupAuthorizer from the
// REGISTRY_ADMIN_GROUP environment variable.
func NewGroupAuthorizerFromEnv() *GroupAuthorizer {
	group := os.Getenv("REGISTRY_ADMIN_GROUP")
	if group == "" {
		group = DefaultAdminGroup
	}
	return &GroupAuthorizer{AdminGroup: group}
}

// Authorize implements Authorizer.
func (a *GroupAuthorizer) Authorize(id Identity, resource, verb string) bool {
	switch verb {
	case "get", "list":
		return true
	}
	return id.InGroup(a.AdminGroup)
}

// RequirePermission returns middleware that rejects requests whose identity
// the authorizer denies for the given resource and verb. Requests without
// an identity in context are treated as anonymous.
func RequirePermission(authorizer Authorizer, resource, verb string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())
			if !authorizer.Authorize(id, resource, verb) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "forbidden: " + verb + " on " + resource,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
