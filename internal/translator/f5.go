package translator

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/schema"
)

// F5Translator renders a standard configuration as an AS3-style declarative
// ADC document consumable by the F5 declarative deployment API.
type F5Translator struct{}

// FileExtension returns the artifact extension for F5 declarations.
func (t *F5Translator) FileExtension() string { return "json" }

// f5Name rewrites dashes to underscores; the declaration object names do
// not accept dashes.
func f5Name(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

type f5Declaration struct {
	Class          string            `json:"class"`
	SchemaVersion  string            `json:"schemaVersion"`
	ID             string            `json:"id"`
	Label          string            `json:"label"`
	Remark         string            `json:"remark"`
	Controls       f5Controls        `json:"controls"`
	Pools          []f5Pool          `json:"pools"`
	VirtualServers []f5VirtualServer `json:"virtualServers"`
}

type f5Controls struct {
	Class    string `json:"class"`
	Trace    bool   `json:"trace"`
	LogLevel string `json:"logLevel"`
}

type f5Pool struct {
	Name              string         `json:"name"`
	Members           []f5PoolMember `json:"members"`
	Monitor           f5Monitor      `json:"monitor"`
	LoadBalancingMode string         `json:"load_balancing_mode"`
	Persistence       *f5Persistence `json:"persistence,omitempty"`
}

type f5PoolMember struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	Port            int    `json:"port"`
	Weight          int    `json:"weight"`
	Monitor         string `json:"monitor"`
	State           string `json:"state"`
	ConnectionLimit int    `json:"connectionLimit,omitempty"`
	PriorityGroup   int    `json:"priorityGroup,omitempty"`
}

type f5Monitor struct {
	Type     string `json:"type"`
	Send     string `json:"send"`
	Recv     string `json:"recv"`
	Interval int    `json:"interval"`
	Timeout  int    `json:"timeout"`
	Retries  int    `json:"retries"`
}

type f5Persistence struct {
	Type       string `json:"type"`
	CookieName string `json:"cookie_name,omitempty"`
	Timeout    int    `json:"timeout"`
}

type f5VirtualServer struct {
	Name             string   `json:"name"`
	Destination      string   `json:"destination"`
	Pool             string   `json:"pool"`
	Profiles         []string `json:"profiles"`
	SourceAddrXlate  f5Snat   `json:"source_address_translation"`
	TranslateAddress bool     `json:"translate_address"`
	TranslatePort    bool     `json:"translate_port"`
	ConnectionLimit  int      `json:"connection_limit,omitempty"`
	RateLimit        int      `json:"rate_limit,omitempty"`
	SSL              *f5SSL   `json:"ssl,omitempty"`
	HTTP             *f5HTTP  `json:"http,omitempty"`
}

type f5Snat struct {
	Type string `json:"type"`
}

type f5SSL struct {
	Name        string   `json:"name"`
	Cert        string   `json:"cert"`
	Key         string   `json:"key"`
	Ciphers     string   `json:"ciphers"`
	Protocols   []string `json:"protocols"`
	ClientAuth  string   `json:"client_auth,omitempty"`
	CAFile      string   `json:"ca_file,omitempty"`
	VerifyDepth int      `json:"verify_depth,omitempty"`
	CRLFile     string   `json:"crl_file,omitempty"`
}

type f5HTTP struct {
	InsertXForwardedFor   bool `json:"insert_xforwarded_for"`
	RedirectHTTPToHTTPS   bool `json:"redirect_http_to_https"`
	HSTSEnabled           bool `json:"hsts_enabled,omitempty"`
	HSTSMaxAge            int  `json:"hsts_max_age,omitempty"`
	HSTSIncludeSubdomains bool `json:"hsts_include_subdomains,omitempty"`
	HSTSPreload           bool `json:"hsts_preload,omitempty"`
}

// f5Algorithm maps the standardized algorithm onto the F5 load balancing
// mode. Unmapped algorithms fall back to round-robin.
func f5Algorithm(algorithm schema.Algorithm) string {
	switch algorithm {
	case schema.AlgorithmLeastConnections:
		return "least-connections-member"
	case schema.AlgorithmFastestResponse:
		return "fastest-app-response"
	case schema.AlgorithmWeightedRoundRobin:
		return "weighted-round-robin"
	case schema.AlgorithmIPHash:
		return "ip-hash"
	default:
		return "round-robin"
	}
}

// f5PersistenceType maps the standardized persistence type onto the F5
// persistence profile name.
func f5PersistenceType(t schema.PersistenceType) string {
	switch t {
	case schema.PersistenceSourceIP:
		return "source_addr"
	case schema.PersistenceCookie:
		return "cookie"
	case schema.PersistenceAppCookie:
		return "app_cookie"
	case schema.PersistenceHTTPHeader:
		return "hash"
	case schema.PersistenceTLSSessionID:
		return "ssl"
	case schema.PersistenceCustom:
		return "universal"
	default:
		return "none"
	}
}

// Generate renders the F5 declaration as indented JSON.
func (t *F5Translator) Generate(cfg *schema.StandardConfig) (string, error) {
	doc := indexDocument(cfg)
	vs := cfg.VirtualServer

	pool, ok := doc.poolByID(vs.PoolID)
	if !ok {
		return "", apperrors.NewUnresolvedReferenceError("pool_id", vs.PoolID)
	}

	members := make([]f5PoolMember, 0, len(pool.Members))
	for _, m := range pool.Members {
		state := "disabled"
		if m.Enabled {
			state = "enabled"
		}
		member := f5PoolMember{
			Name:            m.Name,
			Address:         m.IPAddress,
			Port:            m.Port,
			Weight:          m.Weight,
			Monitor:         "http",
			State:           state,
			ConnectionLimit: m.ConnectionLimit,
		}
		if m.Backup {
			member.PriorityGroup = 1
		}
		members = append(members, member)
	}

	poolName := f5Name(pool.Name)
	f5pool := f5Pool{
		Name:    poolName,
		Members: members,
		Monitor: f5Monitor{
			Type:     string(pool.Monitor.Type),
			Send:     fmt.Sprintf(`GET %s HTTP/1.1\r\nHost: \r\nConnection: close\r\n\r\n`, pool.Monitor.HTTPPath),
			Recv:     pool.Monitor.ExpectedText,
			Interval: pool.Monitor.Interval,
			Timeout:  pool.Monitor.Timeout,
			Retries:  pool.Monitor.Retries,
		},
		LoadBalancingMode: f5Algorithm(pool.Algorithm),
	}
	if pool.Persistence.Type != schema.PersistenceNone && pool.Persistence.Type != "" {
		persistence := &f5Persistence{
			Type:    f5PersistenceType(pool.Persistence.Type),
			Timeout: pool.Persistence.Timeout,
		}
		switch pool.Persistence.Type {
		case schema.PersistenceCookie, schema.PersistenceAppCookie:
			persistence.CookieName = pool.Persistence.CookieName
			if persistence.CookieName == "" {
				persistence.CookieName = "SERVERID"
			}
		}
		f5pool.Persistence = persistence
	}

	profiles := []string{"http", "tcp"}
	if vs.SSL.Enabled {
		profiles = append(profiles, "clientssl")
		if vs.MTLS.Enabled {
			profiles = append(profiles, "serverssl")
		}
	}

	f5vs := f5VirtualServer{
		Name:             f5Name(vs.Name),
		Destination:      fmt.Sprintf("%s:%d", vs.IPAddress, vs.Port),
		Pool:             poolName,
		Profiles:         profiles,
		SourceAddrXlate:  f5Snat{Type: "automap"},
		TranslateAddress: true,
		TranslatePort:    true,
		ConnectionLimit:  vs.ConnectionLimit,
		RateLimit:        vs.ConnectionRateLimit,
	}

	if vs.SSL.Enabled {
		if cert, ok := doc.certificateByID(vs.SSL.CertificateID); ok {
			certName := f5Name(cert.Name)
			ssl := &f5SSL{
				Name:      "ssl_" + certName,
				Cert:      fmt.Sprintf("/config/ssl/ssl.crt/%s.crt", certName),
				Key:       fmt.Sprintf("/config/ssl/ssl.key/%s.key", certName),
				Ciphers:   vs.SSL.Ciphers,
				Protocols: vs.SSL.Protocols,
			}
			if ssl.Ciphers == "" {
				ssl.Ciphers = "DEFAULT"
			}
			if vs.MTLS.Enabled && vs.MTLS.ClientAuthType != schema.ClientAuthNone {
				if caCert, ok := doc.certificateByID(vs.MTLS.ClientCACertID); ok {
					caName := f5Name(caCert.Name)
					ssl.ClientAuth = string(vs.MTLS.ClientAuthType)
					ssl.CAFile = fmt.Sprintf("/config/ssl/ssl.crt/%s.crt", caName)
					ssl.VerifyDepth = vs.MTLS.VerifyDepth
					if vs.MTLS.CRLEnabled {
						ssl.CRLFile = fmt.Sprintf("/config/ssl/ssl.crl/%s.crl", caName)
					}
				}
			}
			f5vs.SSL = ssl
		}
	}

	httpSettings := &f5HTTP{
		InsertXForwardedFor: vs.HTTP.XForwardedFor,
		RedirectHTTPToHTTPS: vs.HTTP.RedirectHTTPToHTTPS,
	}
	if vs.SSL.Enabled && vs.HTTP.HSTSEnabled {
		httpSettings.HSTSEnabled = true
		httpSettings.HSTSMaxAge = vs.HTTP.HSTSMaxAge
		httpSettings.HSTSIncludeSubdomains = vs.HTTP.HSTSIncludeSubdoms
		httpSettings.HSTSPreload = vs.HTTP.HSTSPreload
	}
	f5vs.HTTP = httpSettings

	declaration := f5Declaration{
		Class:         "ADC",
		SchemaVersion: "3.0.0",
		ID:            fmt.Sprintf("LBaaS_%s_%s", cfg.Metadata.Environment, cfg.Metadata.Datacenter),
		Label:         fmt.Sprintf("LBaaS configuration for %s", vs.Name),
		Remark: fmt.Sprintf("Generated by %s for %s in %s",
			cfg.Metadata.CreatedBy, cfg.Metadata.Environment, cfg.Metadata.Datacenter),
		Controls: f5Controls{
			Class:    "Controls",
			Trace:    true,
			LogLevel: "debug",
		},
		Pools:          []f5Pool{f5pool},
		VirtualServers: []f5VirtualServer{f5vs},
	}

	out, err := json.MarshalIndent(declaration, "", "  ")
	if err != nil {
		return "", apperrors.WrapError(err, apperrors.ErrCodeInternalError, "translator", "failed to serialize F5 declaration")
	}
	return string(out), nil
}

// PostDeploy is a no-op for F5; a real deployment would push the
// declaration to the declarative endpoint. The artifact on disk is the
// deliverable.
func (t *F5Translator) PostDeploy(cfg *schema.StandardConfig, artifactPath string) (string, error) {
	return fmt.Sprintf("F5 configuration generated and saved to %s", artifactPath), nil
}
