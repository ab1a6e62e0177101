package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func TestIPAMRequestIP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/ipam/request_ip", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "LADC-subnet", body["subnet_id"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(IPAllocation{
			IPAddress: "10.0.1.50",
			SubnetID:  "LADC-subnet",
		})
	}))
	t.Cleanup(srv.Close)

	client := NewIPAMClient(srv.URL, testLogger(t))
	alloc, err := client.RequestIP(context.Background(), "LADC-subnet")
	require.NoError(t, err)
	assert.Equal(t, "10.0.1.50", alloc.IPAddress)
	assert.Equal(t, "LADC-subnet", alloc.SubnetID)
}

func TestIPAMReserveAndRelease(t *testing.T) {
	t.Parallel()

	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"status": "ok"}`))
	}))
	t.Cleanup(srv.Close)

	client := NewIPAMClient(srv.URL, testLogger(t))
	ctx := context.Background()

	require.NoError(t, client.ReserveIP(ctx, "10.0.1.50", "app.example.com", "LADC-subnet"))
	require.NoError(t, client.ReleaseIP(ctx, "10.0.1.50"))
	require.NoError(t, client.UpdateFQDN(ctx, "10.0.1.50", "app2.example.com"))

	assert.Equal(t, []string{
		"/api/ipam/reserve_ip",
		"/api/ipam/release_ip",
		"/api/ipam/update_fqdn",
	}, paths)
}

func TestIPAMResolveFQDN(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ipam/resolve", r.URL.Path)
		assert.Equal(t, "app.example.com", r.URL.Query().Get("fqdn"))
		w.Write([]byte(`{"fqdn": "app.example.com", "ip_address": "10.0.1.50"}`))
	}))
	t.Cleanup(srv.Close)

	client := NewIPAMClient(srv.URL, testLogger(t))
	ip, err := client.ResolveFQDN(context.Background(), "app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "10.0.1.50", ip)
}

func TestIPAMErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "subnet exhausted", http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	client := NewIPAMClient(srv.URL, testLogger(t))
	_, err := client.RequestIP(context.Background(), "full-subnet")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeIntegrationFailed, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "IPAM returned status 409")
}

func TestIPAMUnreachable(t *testing.T) {
	t.Parallel()

	client := NewIPAMClient("http://127.0.0.1:1", testLogger(t))
	_, err := client.RequestIP(context.Background(), "any")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeIntegrationFailed, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "IPAM service unreachable")
}
