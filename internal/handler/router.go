package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dpaschgit/lbaasv1/internal/middleware"
)

// RouterDeps bundles the handlers and middleware wired into the API router.
type RouterDeps struct {
	Auth        *middleware.Authenticator
	RateLimiter *middleware.RateLimiter
	AuthAPI     *AuthHandler
	VIPs        *VIPHandler
	Registry    *RegistryHandler
	Promotion   *PromotionHandler
	Migration   *MigrationHandler
	Health      *HealthHandler
}

// NewRouter assembles the API route table. Health probes and the token
// endpoint are public; everything else sits behind bearer auth, and the
// whole tree is rate limited.
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", deps.Health.Health).Methods(http.MethodGet)
	r.HandleFunc("/liveness", deps.Health.Liveness).Methods(http.MethodGet)
	r.HandleFunc("/readiness", deps.Health.Readiness).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/auth/token", deps.AuthAPI.Token).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(mux.MiddlewareFunc(deps.Auth.RequireAuth))

	api.HandleFunc("/api/v1/auth/users/me", deps.AuthAPI.Me).Methods(http.MethodGet)

	api.HandleFunc("/api/v1/vips", deps.VIPs.Create).Methods(http.MethodPost)
	api.HandleFunc("/api/v1/vips", deps.VIPs.List).Methods(http.MethodGet)
	api.HandleFunc("/api/v1/vips/{vip_id}", deps.VIPs.Get).Methods(http.MethodGet)
	api.HandleFunc("/api/v1/vips/{vip_id}", deps.VIPs.Update).Methods(http.MethodPut)
	api.HandleFunc("/api/v1/vips/{vip_id}", deps.VIPs.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/api/v1/vips/{vip_id}/deploy", deps.VIPs.Deploy).Methods(http.MethodPost)

	// Static collection routes go before the {lb_id} wildcard.
	api.HandleFunc("/lbaas/api/lb-registry/types", deps.Registry.Types).Methods(http.MethodGet)
	api.HandleFunc("/lbaas/api/lb-registry/datacenters", deps.Registry.Datacenters).Methods(http.MethodGet)
	api.HandleFunc("/lbaas/api/lb-registry/environments", deps.Registry.Environments).Methods(http.MethodGet)
	api.HandleFunc("/lbaas/api/lb-registry", deps.Registry.List).Methods(http.MethodGet)
	api.HandleFunc("/lbaas/api/lb-registry", deps.Registry.Create).Methods(http.MethodPost)
	api.HandleFunc("/lbaas/api/lb-registry/{lb_id}", deps.Registry.Get).Methods(http.MethodGet)
	api.HandleFunc("/lbaas/api/lb-registry/{lb_id}", deps.Registry.Update).Methods(http.MethodPut)
	api.HandleFunc("/lbaas/api/lb-registry/{lb_id}", deps.Registry.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/promotion/environments", deps.Promotion.Environments).Methods(http.MethodGet)
	api.HandleFunc("/promotion/datacenters/{environment}", deps.Promotion.Datacenters).Methods(http.MethodGet)
	api.HandleFunc("/promotion/prepare/{vip_id}", deps.Promotion.Prepare).Methods(http.MethodPost)
	api.HandleFunc("/promotion/execute", deps.Promotion.Execute).Methods(http.MethodPost)

	api.HandleFunc("/migration/lb-types", deps.Migration.LBTypes).Methods(http.MethodGet)
	api.HandleFunc("/migration/prepare/{vip_id}", deps.Migration.Prepare).Methods(http.MethodPost)
	api.HandleFunc("/migration/compatibility-check", deps.Migration.CheckCompatibility).Methods(http.MethodPost)
	api.HandleFunc("/migration/execute", deps.Migration.Execute).Methods(http.MethodPost)

	if deps.RateLimiter != nil {
		return deps.RateLimiter.Limit(r)
	}
	return r
}
