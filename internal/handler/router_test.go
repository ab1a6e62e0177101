package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpaschgit/lbaasv1/internal/config"
	"github.com/dpaschgit/lbaasv1/internal/domain"
	"github.com/dpaschgit/lbaasv1/internal/integrations"
	"github.com/dpaschgit/lbaasv1/internal/middleware"
	"github.com/dpaschgit/lbaasv1/internal/repository"
	"github.com/dpaschgit/lbaasv1/internal/service"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// Incident numbers recognized by the CMDB stub.
const (
	approvedIncident = "INC0001234"
	rejectedIncident = "INC0006666"
)

type apiHarness struct {
	router    http.Handler
	vips      *repository.InMemoryVIPRepository
	registry  *repository.InMemoryRegistryRepository
	configs   *repository.InMemoryConfigRepository
	outputDir string
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

// cmdbStub mimics the change management endpoints the handlers rely on.
func cmdbStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/servicenow_mock/validate_incident") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("number") {
		case approvedIncident:
			fmt.Fprintf(w, `{"valid": true, "incident_id": %q, "incident_state": "approved"}`, approvedIncident)
		default:
			fmt.Fprintf(w, `{"valid": false, "reason": "Incident is not in an approved state"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newHarness(t *testing.T) *apiHarness {
	t.Helper()
	log := testLogger(t)

	vips := repository.NewInMemoryVIPRepository()
	registry := repository.NewInMemoryRegistryRepository()
	configs := repository.NewInMemoryConfigRepository()
	outputDir := t.TempDir()

	cmdb := integrations.NewCMDBClient(cmdbStub(t).URL, log)
	deployment := service.NewDeploymentService(registry, configs, outputDir, log)
	promotion := service.NewPromotionService(configs, log)
	migration := service.NewMigrationService(configs, log)

	auth := middleware.NewAuthenticator(config.AuthConfig{
		Secret:             "router-test-secret",
		TokenExpiryMinutes: 30,
		Users: []config.UserConfig{
			{Username: "admin1", Password: "adminpass", Role: domain.RoleAdmin},
			{Username: "auditor1", Password: "auditpass", Role: domain.RoleAuditor},
			{Username: "user1", Password: "userpass", Role: domain.RoleUser},
			{Username: "user2", Password: "userpass", Role: domain.RoleUser},
		},
	}, log)

	router := NewRouter(RouterDeps{
		Auth:      auth,
		AuthAPI:   NewAuthHandler(auth, log),
		VIPs:      NewVIPHandler(vips, deployment, cmdb, nil, log),
		Registry:  NewRegistryHandler(registry, log),
		Promotion: NewPromotionHandler(promotion, log),
		Migration: NewMigrationHandler(migration, log),
		Health:    NewHealthHandler("test"),
	})

	return &apiHarness{
		router:    router,
		vips:      vips,
		registry:  registry,
		configs:   configs,
		outputDir: outputDir,
	}
}

// token obtains a bearer token through the public endpoint.
func (h *apiHarness) token(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "token request failed: %s", rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// do performs an authenticated request with an optional JSON body.
func (h *apiHarness) do(t *testing.T, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "body: %s", rec.Body.String())
}
