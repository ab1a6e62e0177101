package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaschgit/lbaasv1/internal/domain"
	"github.com/dpaschgit/lbaasv1/internal/translator"
)

func vipPayload(fqdn string) map[string]interface{} {
	return map[string]interface{}{
		"vip_fqdn":    fqdn,
		"vip_ip":      "10.0.0.10",
		"environment": "DEV",
		"datacenter":  "LADC",
		"port":        80,
		"protocol":    "HTTP",
		"monitor":     map[string]interface{}{"type": "http", "port": 8080},
		"pool": []map[string]interface{}{
			{"ip": "192.168.1.10", "port": 8080},
			{"ip": "192.168.1.11", "port": 8080},
		},
	}
}

func (h *apiHarness) createVIP(t *testing.T, token, fqdn string) domain.VIP {
	t.Helper()
	rec := h.do(t, token, http.MethodPost, "/api/v1/vips", vipPayload(fqdn))
	require.Equal(t, http.StatusCreated, rec.Code, "create failed: %s", rec.Body.String())
	var vip domain.VIP
	decodeBody(t, rec, &vip)
	return vip
}

func TestVIPCreate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	token := h.token(t, "user1", "userpass")

	vip := h.createVIP(t, token, "app.example.com")
	assert.NotEmpty(t, vip.ID)
	assert.Equal(t, "app.example.com", vip.FQDN)
	assert.Equal(t, "user1", vip.Owner)
	assert.False(t, vip.CreatedAt.IsZero())

	stored, err := h.vips.GetByID(vip.ID)
	require.NoError(t, err)
	assert.Equal(t, "user1", stored.Owner)
}

func TestVIPCreateValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	token := h.token(t, "user1", "userpass")

	payload := vipPayload("app.example.com")
	delete(payload, "vip_fqdn")
	rec := h.do(t, token, http.MethodPost, "/api/v1/vips", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "vip_fqdn and a non-empty pool are required")
}

func TestVIPCreateForbiddenForAuditor(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	token := h.token(t, "auditor1", "auditpass")

	rec := h.do(t, token, http.MethodPost, "/api/v1/vips", vipPayload("app.example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Auditors cannot create VIPs")
}

func TestVIPListScoping(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user1 := h.token(t, "user1", "userpass")
	user2 := h.token(t, "user2", "userpass")
	admin := h.token(t, "admin1", "adminpass")
	auditor := h.token(t, "auditor1", "auditpass")

	h.createVIP(t, user1, "one.example.com")
	h.createVIP(t, user1, "two.example.com")
	h.createVIP(t, user2, "three.example.com")

	// Plain users only see their own records by default.
	var vips []domain.VIP
	rec := h.do(t, user1, http.MethodGet, "/api/v1/vips", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &vips)
	assert.Len(t, vips, 2)

	// Admins and auditors see everything.
	rec = h.do(t, admin, http.MethodGet, "/api/v1/vips", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &vips)
	assert.Len(t, vips, 3)

	rec = h.do(t, auditor, http.MethodGet, "/api/v1/vips", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &vips)
	assert.Len(t, vips, 3)

	// Explicit owner filter.
	rec = h.do(t, admin, http.MethodGet, "/api/v1/vips?owner=user2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &vips)
	require.Len(t, vips, 1)
	assert.Equal(t, "three.example.com", vips[0].FQDN)
}

func TestVIPGetOwnership(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user1 := h.token(t, "user1", "userpass")
	user2 := h.token(t, "user2", "userpass")

	vip := h.createVIP(t, user1, "app.example.com")

	rec := h.do(t, user1, http.MethodGet, "/api/v1/vips/"+vip.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, user2, http.MethodGet, "/api/v1/vips/"+vip.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authorized to access this VIP")

	rec = h.do(t, user1, http.MethodGet, "/api/v1/vips/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVIPUpdateRequiresIncident(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	token := h.token(t, "user1", "userpass")
	vip := h.createVIP(t, token, "app.example.com")

	// No incident id at all.
	rec := h.do(t, token, http.MethodPut, "/api/v1/vips/"+vip.ID, map[string]interface{}{
		"port": 8443,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ServiceNow Incident ID is required for update operation")

	// Rejected incident.
	rec = h.do(t, token, http.MethodPut, "/api/v1/vips/"+vip.ID, map[string]interface{}{
		"port":                   8443,
		"servicenow_incident_id": rejectedIncident,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incident is not in an approved state")

	// Approved incident.
	rec = h.do(t, token, http.MethodPut, "/api/v1/vips/"+vip.ID, map[string]interface{}{
		"port":                   8443,
		"servicenow_incident_id": approvedIncident,
	})
	require.Equal(t, http.StatusOK, rec.Code, "update failed: %s", rec.Body.String())

	var updated domain.VIP
	decodeBody(t, rec, &updated)
	assert.Equal(t, 8443, updated.Port)
	assert.Equal(t, "app.example.com", updated.FQDN)
}

func TestVIPUpdateOwnership(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user1 := h.token(t, "user1", "userpass")
	user2 := h.token(t, "user2", "userpass")
	admin := h.token(t, "admin1", "adminpass")
	vip := h.createVIP(t, user1, "app.example.com")

	body := map[string]interface{}{
		"port":                   9090,
		"servicenow_incident_id": approvedIncident,
	}

	rec := h.do(t, user2, http.MethodPut, "/api/v1/vips/"+vip.ID, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authorized to modify this VIP")

	// Admins may modify records they do not own.
	rec = h.do(t, admin, http.MethodPut, "/api/v1/vips/"+vip.ID, body)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVIPDelete(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	token := h.token(t, "user1", "userpass")
	vip := h.createVIP(t, token, "app.example.com")

	// Missing incident id.
	rec := h.do(t, token, http.MethodDelete, "/api/v1/vips/"+vip.ID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ServiceNow Incident ID is required for delete operation")

	rec = h.do(t, token, http.MethodDelete, "/api/v1/vips/"+vip.ID, map[string]interface{}{
		"servicenow_incident_id": approvedIncident,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := h.vips.GetByID(vip.ID)
	assert.Error(t, err)
}

func TestVIPDeploy(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	token := h.token(t, "user1", "userpass")
	vip := h.createVIP(t, token, "app.example.com")

	require.NoError(t, h.registry.Save(&domain.LoadBalancer{
		ID:          "lb-1",
		Name:        "nginx-dev-ladc",
		LBType:      "NGINX",
		IPAddress:   "10.1.0.1",
		Port:        443,
		Environment: "DEV",
		Datacenter:  "LADC",
		Status:      domain.LBStatusActive,
		CreatedAt:   time.Now().UTC(),
	}))

	rec := h.do(t, token, http.MethodPost, "/api/v1/vips/"+vip.ID+"/deploy", map[string]interface{}{
		"lb_type":     "NGINX",
		"environment": "DEV",
		"datacenter":  "LADC",
	})
	require.Equal(t, http.StatusOK, rec.Code, "deploy failed: %s", rec.Body.String())

	var result translator.DeployResult
	decodeBody(t, rec, &result)
	require.True(t, result.Success, "deploy result error: %s", result.Error)
	assert.Equal(t, filepath.Join(h.outputDir, "vs-app.example.com.conf"), result.ConfigPath)

	_, err := os.Stat(result.ConfigPath)
	require.NoError(t, err)

	stored, err := h.configs.Get(vip.ID)
	require.NoError(t, err)
	assert.Equal(t, "NGINX", stored.LBType)
}

func TestVIPDeployNoRegisteredLB(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	token := h.token(t, "user1", "userpass")
	vip := h.createVIP(t, token, "app.example.com")

	rec := h.do(t, token, http.MethodPost, "/api/v1/vips/"+vip.ID+"/deploy", map[string]interface{}{
		"lb_type":     "NGINX",
		"environment": "DEV",
		"datacenter":  "LADC",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no active NGINX load balancer registered in DEV/LADC")
}
