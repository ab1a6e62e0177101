package schema

import "encoding/json"

// StandardConfig is the vendor-neutral intermediate representation of a
// load-balanced virtual service. It is built once per translation request,
// validated by the translator contract, and never mutated by a translator.
type StandardConfig struct {
	Metadata      Metadata      `json:"metadata"`
	VirtualServer VirtualServer `json:"virtual_server"`
	Pools         []Pool        `json:"pools"`
	Certificates  []Certificate `json:"certificates"`
}

// Metadata identifies the target family and the origin of a configuration.
// LBType is advisory only; the translator selector is authoritative.
type Metadata struct {
	SchemaVersion string `json:"schema_version"`
	LBType        string `json:"lb_type"`
	Environment   string `json:"environment"`
	Datacenter    string `json:"datacenter"`
	CreatedBy     string `json:"created_by"`
	Description   string `json:"description"`
}

// VirtualServer is the listener definition. It references exactly one pool.
type VirtualServer struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	IPAddress           string       `json:"ip_address"`
	Port                int          `json:"port"`
	Protocol            Protocol     `json:"protocol"`
	PoolID              string       `json:"pool_id"`
	SSL                 SSLConfig    `json:"ssl"`
	MTLS                MTLSConfig   `json:"mtls"`
	HTTP                HTTPSettings `json:"http"`
	ConnectionLimit     int          `json:"connection_limit"`
	ConnectionRateLimit int          `json:"connection_rate_limit"`
	Enabled             bool         `json:"enabled"`
}

// SSLConfig holds TLS termination settings for a virtual server.
type SSLConfig struct {
	Enabled             bool     `json:"enabled"`
	CertificateID       string   `json:"certificate_id"`
	Protocols           []string `json:"protocols"`
	Ciphers             string   `json:"ciphers"`
	PreferServerCiphers bool     `json:"prefer_server_ciphers"`
	SessionCache        bool     `json:"session_cache"`
	SessionTimeout      int      `json:"session_timeout"`
}

// MTLSConfig holds client certificate validation settings.
type MTLSConfig struct {
	Enabled        bool           `json:"enabled"`
	ClientAuthType ClientAuthType `json:"client_auth_type"`
	ClientCACertID string         `json:"client_ca_cert_id"`
	VerifyDepth    int            `json:"verify_depth"`
	CRLEnabled     bool           `json:"crl_enabled"`
	OCSPEnabled    bool           `json:"ocsp_enabled"`
}

// HTTPSettings holds HTTP-layer behaviors applied at the virtual server.
type HTTPSettings struct {
	XForwardedFor       bool `json:"x_forwarded_for"`
	XForwardedProto     bool `json:"x_forwarded_proto"`
	RedirectHTTPToHTTPS bool `json:"redirect_http_to_https"`
	HSTSEnabled         bool `json:"hsts_enabled"`
	HSTSMaxAge          int  `json:"hsts_max_age"`
	HSTSIncludeSubdoms  bool `json:"hsts_include_subdomains"`
	HSTSPreload         bool `json:"hsts_preload"`
}

// Pool is a set of backend members behind one balancing algorithm.
type Pool struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Members           []PoolMember      `json:"members"`
	Algorithm         Algorithm         `json:"algorithm"`
	Monitor           Monitor           `json:"monitor"`
	Persistence       PersistenceConfig `json:"persistence"`
	ConnectionLimit   int               `json:"connection_limit"`
	ServiceDownAction string            `json:"service_down_action"`
}

// PoolMember is a single backend server. Weight 0 is legal and means the
// member is never selected by weighted algorithms.
type PoolMember struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	IPAddress       string      `json:"ip_address"`
	Port            int         `json:"port"`
	Weight          int         `json:"weight"`
	Enabled         bool        `json:"enabled"`
	Monitor         MonitorType `json:"monitor"`
	Backup          bool        `json:"backup"`
	MaxConnections  int         `json:"max_connections"`
	ConnectionLimit int         `json:"connection_limit"`
}

// Monitor describes the active health probe for a pool.
type Monitor struct {
	Type          MonitorType `json:"type"`
	Interval      int         `json:"interval"`
	Timeout       int         `json:"timeout"`
	Retries       int         `json:"retries"`
	HTTPMethod    string      `json:"http_method"`
	HTTPPath      string      `json:"http_path"`
	HTTPVersion   string      `json:"http_version"`
	ExpectedCodes string      `json:"expected_codes"`
	ExpectedText  string      `json:"expected_text"`
}

// PersistenceConfig describes session stickiness for a pool. Cookie and
// header fields are populated only for the persistence kinds that use them.
type PersistenceConfig struct {
	Type             PersistenceType `json:"type"`
	Timeout          int             `json:"timeout"`
	CookieName       string          `json:"cookie_name,omitempty"`
	CookieMode       string          `json:"cookie_mode,omitempty"`
	CookiePath       string          `json:"cookie_path,omitempty"`
	CookieAttributes string          `json:"cookie_attributes,omitempty"`
	HeaderName       string          `json:"header_name,omitempty"`
}

// Certificate covers both certificate shapes carried in the IR: server
// certificates (common name, SANs, key parameters) and imported CA bundles
// for mTLS (raw content). The two are disambiguated by Content being set.
type Certificate struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       CertificateType `json:"type"`
	CommonName string          `json:"common_name,omitempty"`
	SANs       []string        `json:"sans,omitempty"`
	KeyType    string          `json:"key_type,omitempty"`
	KeySize    int             `json:"key_size,omitempty"`
	Content    string          `json:"content,omitempty"`
}

// IsCA reports whether the certificate entry is an imported CA bundle.
func (c Certificate) IsCA() bool { return c.Content != "" }

// ToJSON serializes the configuration with stable two-space indentation so
// repeated serialization of the same document is byte identical.
func (c *StandardConfig) ToJSON() (string, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FromJSON parses a serialized StandardConfig. The round trip through
// ToJSON/FromJSON is lossless for every field.
func FromJSON(data string) (*StandardConfig, error) {
	var cfg StandardConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
