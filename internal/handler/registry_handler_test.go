package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaschgit/lbaasv1/internal/domain"
)

func lbPayload(name, lbType, env, dc string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"lb_type":     lbType,
		"ip_address":  "10.1.0.1",
		"port":        443,
		"environment": env,
		"datacenter":  dc,
	}
}

func (h *apiHarness) registerLB(t *testing.T, token string, payload map[string]interface{}) domain.LoadBalancer {
	t.Helper()
	rec := h.do(t, token, http.MethodPost, "/lbaas/api/lb-registry", payload)
	require.Equal(t, http.StatusCreated, rec.Code, "register failed: %s", rec.Body.String())
	var lb domain.LoadBalancer
	decodeBody(t, rec, &lb)
	return lb
}

func TestRegistryCreate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	admin := h.token(t, "admin1", "adminpass")

	lb := h.registerLB(t, admin, lbPayload("nginx-dev", "NGINX", "DEV", "LADC"))
	assert.NotEmpty(t, lb.ID)
	assert.Equal(t, domain.LBStatusActive, lb.Status)
	assert.False(t, lb.CreatedAt.IsZero())
}

func TestRegistryCreateAdminOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user := h.token(t, "user1", "userpass")

	rec := h.do(t, user, http.MethodPost, "/lbaas/api/lb-registry", lbPayload("nginx-dev", "NGINX", "DEV", "LADC"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Administrator role required")
}

func TestRegistryCreateValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	admin := h.token(t, "admin1", "adminpass")

	payload := lbPayload("", "NGINX", "DEV", "LADC")
	rec := h.do(t, admin, http.MethodPost, "/lbaas/api/lb-registry", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name and lb_type are required")

	// The type must resolve to a supported translator.
	rec = h.do(t, admin, http.MethodPost, "/lbaas/api/lb-registry", lbPayload("bad", "HAPROXY", "DEV", "LADC"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported load balancer type: HAPROXY")
}

func TestRegistryListAndFilters(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	admin := h.token(t, "admin1", "adminpass")
	user := h.token(t, "user1", "userpass")

	h.registerLB(t, admin, lbPayload("nginx-dev", "NGINX", "DEV", "LADC"))
	h.registerLB(t, admin, lbPayload("f5-prod", "F5", "PROD", "NYDC"))

	// Reads are open to any authenticated role.
	var lbs []domain.LoadBalancer
	rec := h.do(t, user, http.MethodGet, "/lbaas/api/lb-registry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &lbs)
	assert.Len(t, lbs, 2)

	rec = h.do(t, user, http.MethodGet, "/lbaas/api/lb-registry?lb_type=F5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &lbs)
	require.Len(t, lbs, 1)
	assert.Equal(t, "f5-prod", lbs[0].Name)

	rec = h.do(t, user, http.MethodGet, "/lbaas/api/lb-registry?environment=UAT", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &lbs)
	assert.Empty(t, lbs)
}

func TestRegistryGetUpdateDelete(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	admin := h.token(t, "admin1", "adminpass")
	lb := h.registerLB(t, admin, lbPayload("nginx-dev", "NGINX", "DEV", "LADC"))

	rec := h.do(t, admin, http.MethodGet, "/lbaas/api/lb-registry/"+lb.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	update := lbPayload("nginx-dev", "NGINX", "DEV", "LADC")
	update["status"] = domain.LBStatusMaintenance
	rec = h.do(t, admin, http.MethodPut, "/lbaas/api/lb-registry/"+lb.ID, update)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.LoadBalancer
	decodeBody(t, rec, &updated)
	assert.Equal(t, lb.ID, updated.ID)
	assert.Equal(t, domain.LBStatusMaintenance, updated.Status)

	rec = h.do(t, admin, http.MethodDelete, "/lbaas/api/lb-registry/"+lb.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, admin, http.MethodGet, "/lbaas/api/lb-registry/"+lb.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegistryMetadataEndpoints(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user := h.token(t, "user1", "userpass")

	var types []string
	rec := h.do(t, user, http.MethodGet, "/lbaas/api/lb-registry/types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &types)
	assert.Equal(t, []string{"NGINX", "F5", "AVI"}, types)

	var dcs []string
	rec = h.do(t, user, http.MethodGet, "/lbaas/api/lb-registry/datacenters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &dcs)
	assert.Equal(t, []string{"LADC", "NYDC", "UKDC"}, dcs)

	var envs []string
	rec = h.do(t, user, http.MethodGet, "/lbaas/api/lb-registry/environments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &envs)
	assert.Equal(t, []string{"DEV", "UAT", "PROD"}, envs)
}
