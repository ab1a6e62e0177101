package schema

import (
	"fmt"
	"strings"
)

// PlaceholderCACert is written into the IR when mTLS is requested without
// CA material. The certificate entry is always emitted so the reference
// resolves during validation.
const PlaceholderCACert = "# Placeholder for CA certificate"

// VIPIntent is the loosely structured description of a requested virtual
// service. Free-form strings are normalized into the closed vocabularies by
// BuildStandardConfig; zero values take the documented defaults.
type VIPIntent struct {
	FQDN        string `json:"vip_fqdn"`
	IPAddress   string `json:"vip_ip"`
	Port        int    `json:"port"`
	Protocol    string `json:"protocol"`
	Environment string `json:"environment"`
	Datacenter  string `json:"datacenter"`
	LBMethod    string `json:"lb_method"`

	PersistenceType       string `json:"persistence_type,omitempty"`
	PersistenceCookieName string `json:"persistence_cookie_name,omitempty"`
	PersistenceHeaderName string `json:"persistence_header_name,omitempty"`
	PersistenceTimeout    int    `json:"persistence_timeout,omitempty"`
	CookieMode            string `json:"cookie_mode,omitempty"`
	CookiePath            string `json:"cookie_path,omitempty"`
	CookieAttributes      string `json:"cookie_attributes,omitempty"`

	MTLSEnabled     bool   `json:"mtls_enabled,omitempty"`
	ClientAuthType  string `json:"client_auth_type,omitempty"`
	ClientCACert    string `json:"client_ca_cert,omitempty"`
	MTLSVerifyDepth int    `json:"mtls_verify_depth,omitempty"`
	MTLSCRLEnabled  bool   `json:"mtls_crl_enabled,omitempty"`
	MTLSOCSPEnabled bool   `json:"mtls_ocsp_enabled,omitempty"`

	SSLProtocols        []string `json:"ssl_protocols,omitempty"`
	SSLCiphers          string   `json:"ssl_ciphers,omitempty"`
	PreferServerCiphers *bool    `json:"prefer_server_ciphers,omitempty"`
	SSLSessionCache     *bool    `json:"ssl_session_cache,omitempty"`
	SSLSessionTimeout   int      `json:"ssl_session_timeout,omitempty"`

	CertType    string   `json:"cert_type,omitempty"`
	CertSANs    []string `json:"cert_sans,omitempty"`
	CertKeyType string   `json:"cert_key_type,omitempty"`
	CertKeySize int      `json:"cert_key_size,omitempty"`

	MonitorInterval      int    `json:"monitor_interval,omitempty"`
	MonitorTimeout       int    `json:"monitor_timeout,omitempty"`
	MonitorRetries       int    `json:"monitor_retries,omitempty"`
	MonitorHTTPMethod    string `json:"monitor_http_method,omitempty"`
	MonitorHTTPPath      string `json:"monitor_http_path,omitempty"`
	MonitorHTTPVersion   string `json:"monitor_http_version,omitempty"`
	MonitorExpectedCodes string `json:"monitor_expected_codes,omitempty"`
	MonitorExpectedText  string `json:"monitor_expected_text,omitempty"`

	PoolConnectionLimit   int    `json:"pool_connection_limit,omitempty"`
	ServiceDownAction     string `json:"service_down_action,omitempty"`
	VSConnectionLimit     int    `json:"vs_connection_limit,omitempty"`
	VSConnectionRateLimit int    `json:"vs_connection_rate_limit,omitempty"`

	XForwardedFor         *bool `json:"x_forwarded_for,omitempty"`
	XForwardedProto       *bool `json:"x_forwarded_proto,omitempty"`
	RedirectHTTPToHTTPS   bool  `json:"redirect_http_to_https,omitempty"`
	HSTSEnabled           bool  `json:"hsts_enabled,omitempty"`
	HSTSMaxAge            int   `json:"hsts_max_age,omitempty"`
	HSTSIncludeSubdomains bool  `json:"hsts_include_subdomains,omitempty"`
	HSTSPreload           bool  `json:"hsts_preload,omitempty"`
}

// ServerInput describes one backend server feeding a pool member. Weight is
// a pointer so an explicit zero ("never selected by weighted algorithms")
// is distinguishable from an omitted weight, which defaults to 1.
type ServerInput struct {
	ID             string `json:"id,omitempty"`
	FQDN           string `json:"fqdn,omitempty"`
	IPAddress      string `json:"ip"`
	Port           int    `json:"server_port"`
	Weight         *int   `json:"weight,omitempty"`
	Backup         bool   `json:"backup,omitempty"`
	MaxConnections int    `json:"max_connections,omitempty"`
	ConnLimit      int    `json:"connection_limit,omitempty"`
}

// PlacementDecision carries the outcome of target selection for a VIP.
type PlacementDecision struct {
	LBType      string `json:"lb_type"`
	Environment string `json:"environment"`
	Datacenter  string `json:"datacenter"`
}

// Slug derives the identifier fragment used for pool, virtual server and
// certificate ids from an FQDN. Distinct FQDNs yield distinct slugs since
// only dots are rewritten.
func Slug(fqdn string) string {
	return strings.ReplaceAll(fqdn, ".", "-")
}

// BuildStandardConfig assembles the vendor-neutral IR from a VIP intent, a
// server list and a placement decision. The result is a pure function of
// its inputs: identical inputs always produce an identical document.
func BuildStandardConfig(vip VIPIntent, servers []ServerInput, placement PlacementDecision) *StandardConfig {
	slug := Slug(vip.FQDN)
	protocol := NormalizeProtocol(vip.Protocol)

	poolID := "pool-" + slug
	vsID := "vs-" + slug
	certID := "cert-" + slug

	members := make([]PoolMember, 0, len(servers))
	for i, srv := range servers {
		id := srv.ID
		if id == "" {
			id = fmt.Sprintf("server-%d", i+1)
		}
		name := srv.FQDN
		if name == "" {
			name = srv.IPAddress
		}
		members = append(members, PoolMember{
			ID:              id,
			Name:            name,
			IPAddress:       srv.IPAddress,
			Port:            intOr(srv.Port, 80),
			Weight:          intPtrOr(srv.Weight, 1),
			Enabled:         true,
			Monitor:         MonitorHTTP,
			Backup:          srv.Backup,
			MaxConnections:  srv.MaxConnections,
			ConnectionLimit: srv.ConnLimit,
		})
	}

	persistence := PersistenceConfig{
		Type:    NormalizePersistence(vip.PersistenceType),
		Timeout: intOr(vip.PersistenceTimeout, 3600),
	}
	switch persistence.Type {
	case PersistenceCookie, PersistenceAppCookie:
		persistence.CookieName = strOr(vip.PersistenceCookieName, "SERVERID")
		persistence.CookieMode = strOr(vip.CookieMode, "insert")
		persistence.CookiePath = strOr(vip.CookiePath, "/")
		persistence.CookieAttributes = vip.CookieAttributes
	case PersistenceHTTPHeader:
		persistence.HeaderName = strOr(vip.PersistenceHeaderName, "X-Persistence")
	}

	pool := Pool{
		ID:        poolID,
		Name:      "pool-" + vip.FQDN,
		Members:   members,
		Algorithm: NormalizeAlgorithm(vip.LBMethod),
		Monitor: Monitor{
			Type:          MonitorHTTP,
			Interval:      intOr(vip.MonitorInterval, 5),
			Timeout:       intOr(vip.MonitorTimeout, 15),
			Retries:       intOr(vip.MonitorRetries, 3),
			HTTPMethod:    strOr(vip.MonitorHTTPMethod, "GET"),
			HTTPPath:      strOr(vip.MonitorHTTPPath, "/"),
			HTTPVersion:   strOr(vip.MonitorHTTPVersion, "1.1"),
			ExpectedCodes: strOr(vip.MonitorExpectedCodes, "200"),
			ExpectedText:  vip.MonitorExpectedText,
		},
		Persistence:       persistence,
		ConnectionLimit:   vip.PoolConnectionLimit,
		ServiceDownAction: strOr(vip.ServiceDownAction, "none"),
	}

	ssl := SSLConfig{
		Enabled:             protocol == ProtocolHTTPS,
		CertificateID:       certID,
		Protocols:           sliceOr(vip.SSLProtocols, []string{"TLSv1.2", "TLSv1.3"}),
		Ciphers:             vip.SSLCiphers,
		PreferServerCiphers: boolPtrOr(vip.PreferServerCiphers, true),
		SessionCache:        boolPtrOr(vip.SSLSessionCache, true),
		SessionTimeout:      intOr(vip.SSLSessionTimeout, 300),
	}

	caCertID := ""
	if vip.MTLSEnabled {
		caCertID = "ca-cert-" + slug
	}
	mtls := MTLSConfig{
		Enabled:        vip.MTLSEnabled,
		ClientAuthType: NormalizeClientAuth(vip.ClientAuthType),
		ClientCACertID: caCertID,
		VerifyDepth:    intOr(vip.MTLSVerifyDepth, 1),
		CRLEnabled:     vip.MTLSCRLEnabled,
		OCSPEnabled:    vip.MTLSOCSPEnabled,
	}

	vs := VirtualServer{
		ID:                  vsID,
		Name:                "vs-" + vip.FQDN,
		IPAddress:           vip.IPAddress,
		Port:                intOr(vip.Port, 80),
		Protocol:            protocol,
		PoolID:              poolID,
		SSL:                 ssl,
		MTLS:                mtls,
		ConnectionLimit:     vip.VSConnectionLimit,
		ConnectionRateLimit: vip.VSConnectionRateLimit,
		Enabled:             true,
		HTTP: HTTPSettings{
			XForwardedFor:       boolPtrOr(vip.XForwardedFor, true),
			XForwardedProto:     boolPtrOr(vip.XForwardedProto, true),
			RedirectHTTPToHTTPS: vip.RedirectHTTPToHTTPS,
			HSTSEnabled:         vip.HSTSEnabled,
			HSTSMaxAge:          intOr(vip.HSTSMaxAge, 31536000),
			HSTSIncludeSubdoms:  vip.HSTSIncludeSubdomains,
			HSTSPreload:         vip.HSTSPreload,
		},
	}

	var certs []Certificate
	if ssl.Enabled {
		certs = append(certs, Certificate{
			ID:         certID,
			Name:       "cert-" + vip.FQDN,
			Type:       certTypeOr(vip.CertType),
			CommonName: vip.FQDN,
			SANs:       sliceOr(vip.CertSANs, []string{vip.FQDN}),
			KeyType:    strOr(vip.CertKeyType, "RSA"),
			KeySize:    intOr(vip.CertKeySize, 2048),
		})
	}
	if vip.MTLSEnabled {
		// The CA entry is emitted even without supplied content so the
		// client_ca_cert_id reference always resolves during validation.
		certs = append(certs, Certificate{
			ID:      caCertID,
			Name:    "ca-cert-" + vip.FQDN,
			Type:    CertImported,
			Content: strOr(vip.ClientCACert, PlaceholderCACert),
		})
	}

	return &StandardConfig{
		Metadata: Metadata{
			SchemaVersion: "1.0",
			LBType:        placement.LBType,
			Environment:   vip.Environment,
			Datacenter:    vip.Datacenter,
			CreatedBy:     "LBaaS",
			Description:   "Load balancer configuration for " + vip.FQDN,
		},
		VirtualServer: vs,
		Pools:         []Pool{pool},
		Certificates:  certs,
	}
}

func certTypeOr(s string) CertificateType {
	switch CertificateType(lower(s)) {
	case CertSelfSigned, CertImported, CertManaged, CertLetsEncrypt:
		return CertificateType(lower(s))
	default:
		return CertSelfSigned
	}
}

func strOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func intPtrOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func boolPtrOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func sliceOr(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
