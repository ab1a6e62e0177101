package translator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaschgit/lbaasv1/internal/schema"
)

func f5Generate(t *testing.T, cfg *schema.StandardConfig) f5Declaration {
	t.Helper()
	out, err := (&F5Translator{}).Generate(cfg)
	require.NoError(t, err)
	var decl f5Declaration
	require.NoError(t, json.Unmarshal([]byte(out), &decl))
	return decl
}

func TestF5DeclarationEnvelope(t *testing.T) {
	t.Parallel()

	decl := f5Generate(t, httpsConfig())

	assert.Equal(t, "ADC", decl.Class)
	assert.Equal(t, "3.0.0", decl.SchemaVersion)
	assert.Equal(t, "LBaaS_PROD_NYDC", decl.ID)
	assert.Equal(t, "LBaaS configuration for vs-secure.example.com", decl.Label)
	assert.Equal(t, "Generated by LBaaS for PROD in NYDC", decl.Remark)
	assert.Equal(t, "Controls", decl.Controls.Class)
	assert.True(t, decl.Controls.Trace)
	assert.Equal(t, "debug", decl.Controls.LogLevel)
}

func TestF5Pool(t *testing.T) {
	t.Parallel()

	decl := f5Generate(t, testConfig())
	require.Len(t, decl.Pools, 1)
	pool := decl.Pools[0]

	assert.Equal(t, "pool_app.example.com", pool.Name)
	assert.Equal(t, "round-robin", pool.LoadBalancingMode)
	assert.Nil(t, pool.Persistence)

	require.Len(t, pool.Members, 2)
	assert.Equal(t, "192.168.1.10", pool.Members[0].Address)
	assert.Equal(t, 8080, pool.Members[0].Port)
	assert.Equal(t, 1, pool.Members[0].Weight)
	assert.Equal(t, "enabled", pool.Members[0].State)
	assert.Equal(t, 0, pool.Members[0].PriorityGroup)

	assert.Equal(t, "http", pool.Monitor.Type)
	assert.Equal(t, `GET / HTTP/1.1\r\nHost: \r\nConnection: close\r\n\r\n`, pool.Monitor.Send)
	assert.Equal(t, 5, pool.Monitor.Interval)
	assert.Equal(t, 15, pool.Monitor.Timeout)
	assert.Equal(t, 3, pool.Monitor.Retries)
}

func TestF5BackupMemberPriorityGroup(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Pools[0].Members[1].Backup = true
	decl := f5Generate(t, cfg)

	assert.Equal(t, 0, decl.Pools[0].Members[0].PriorityGroup)
	assert.Equal(t, 1, decl.Pools[0].Members[1].PriorityGroup)
}

func TestF5AlgorithmMapping(t *testing.T) {
	t.Parallel()

	cases := map[schema.Algorithm]string{
		schema.AlgorithmRoundRobin:         "round-robin",
		schema.AlgorithmLeastConnections:   "least-connections-member",
		schema.AlgorithmFastestResponse:    "fastest-app-response",
		schema.AlgorithmWeightedRoundRobin: "weighted-round-robin",
		schema.AlgorithmIPHash:             "ip-hash",
		schema.AlgorithmLeastRequests:      "round-robin",
	}
	for algorithm, want := range cases {
		assert.Equal(t, want, f5Algorithm(algorithm), "algorithm %s", algorithm)
	}
}

func TestF5PersistenceMapping(t *testing.T) {
	t.Parallel()

	cases := map[schema.PersistenceType]string{
		schema.PersistenceSourceIP:     "source_addr",
		schema.PersistenceCookie:       "cookie",
		schema.PersistenceAppCookie:    "app_cookie",
		schema.PersistenceHTTPHeader:   "hash",
		schema.PersistenceTLSSessionID: "ssl",
		schema.PersistenceCustom:       "universal",
		schema.PersistenceNone:         "none",
	}
	for persistence, want := range cases {
		assert.Equal(t, want, f5PersistenceType(persistence), "persistence %s", persistence)
	}
}

func TestF5CookiePersistenceProfile(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Pools[0].Persistence = schema.PersistenceConfig{Type: schema.PersistenceCookie, Timeout: 1800}
	decl := f5Generate(t, cfg)

	require.NotNil(t, decl.Pools[0].Persistence)
	assert.Equal(t, "cookie", decl.Pools[0].Persistence.Type)
	assert.Equal(t, "SERVERID", decl.Pools[0].Persistence.CookieName)
	assert.Equal(t, 1800, decl.Pools[0].Persistence.Timeout)
}

func TestF5VirtualServer(t *testing.T) {
	t.Parallel()

	decl := f5Generate(t, testConfig())
	require.Len(t, decl.VirtualServers, 1)
	vs := decl.VirtualServers[0]

	assert.Equal(t, "vs_app.example.com", vs.Name)
	assert.Equal(t, "10.0.0.10:80", vs.Destination)
	assert.Equal(t, "pool_app.example.com", vs.Pool)
	assert.Equal(t, []string{"http", "tcp"}, vs.Profiles)
	assert.Equal(t, "automap", vs.SourceAddrXlate.Type)
	assert.True(t, vs.TranslateAddress)
	assert.True(t, vs.TranslatePort)
	assert.Nil(t, vs.SSL)
	require.NotNil(t, vs.HTTP)
	assert.True(t, vs.HTTP.InsertXForwardedFor)
}

func TestF5SSLAndMTLS(t *testing.T) {
	t.Parallel()

	decl := f5Generate(t, httpsConfig())
	vs := decl.VirtualServers[0]

	assert.Equal(t, []string{"http", "tcp", "clientssl", "serverssl"}, vs.Profiles)
	require.NotNil(t, vs.SSL)
	assert.Equal(t, "ssl_cert_secure.example.com", vs.SSL.Name)
	assert.Equal(t, "/config/ssl/ssl.crt/cert_secure.example.com.crt", vs.SSL.Cert)
	assert.Equal(t, "/config/ssl/ssl.key/cert_secure.example.com.key", vs.SSL.Key)
	assert.Equal(t, "DEFAULT", vs.SSL.Ciphers)
	assert.Equal(t, []string{"TLSv1.2", "TLSv1.3"}, vs.SSL.Protocols)
	assert.Equal(t, "required", vs.SSL.ClientAuth)
	assert.Equal(t, "/config/ssl/ssl.crt/ca_cert_secure.example.com.crt", vs.SSL.CAFile)
	assert.Equal(t, 1, vs.SSL.VerifyDepth)
	assert.Empty(t, vs.SSL.CRLFile)

	require.NotNil(t, vs.HTTP)
	assert.True(t, vs.HTTP.HSTSEnabled)
	assert.Equal(t, 31536000, vs.HTTP.HSTSMaxAge)
}

func TestF5SSLWithoutMTLS(t *testing.T) {
	t.Parallel()

	cfg := httpsConfig()
	cfg.VirtualServer.MTLS = schema.MTLSConfig{}
	decl := f5Generate(t, cfg)
	vs := decl.VirtualServers[0]

	assert.Equal(t, []string{"http", "tcp", "clientssl"}, vs.Profiles)
	require.NotNil(t, vs.SSL)
	assert.Empty(t, vs.SSL.ClientAuth)
	assert.Empty(t, vs.SSL.CAFile)
}

func TestF5PostDeploy(t *testing.T) {
	t.Parallel()

	msg, err := (&F5Translator{}).PostDeploy(testConfig(), "/tmp/out/vs-app.example.com.json")
	require.NoError(t, err)
	assert.Equal(t, "F5 configuration generated and saved to /tmp/out/vs-app.example.com.json", msg)
}
