package translator

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/schema"
)

// AVITranslator renders a standard configuration as a JSON document for the
// AVI (software-defined load balancer) controller API.
type AVITranslator struct{}

// FileExtension returns the artifact extension for AVI configurations.
func (t *AVITranslator) FileExtension() string { return "json" }

type aviDocument struct {
	Pools               []aviPool           `json:"pools"`
	VirtualServices     []aviVirtualService `json:"virtual_services"`
	ApplicationProfiles []aviAppProfile     `json:"application_profiles"`
	SSLProfiles         []aviSSLProfile     `json:"ssl_profiles,omitempty"`
	Tenant              string              `json:"tenant"`
	Version             string              `json:"version"`
	Description         string              `json:"description"`
}

type aviPool struct {
	Name               string          `json:"name"`
	Servers            []aviServer     `json:"servers"`
	LBAlgorithm        string          `json:"lb_algorithm"`
	HealthMonitorRefs  []string        `json:"health_monitor_refs"`
	HealthMonitor      aviMonitor      `json:"health_monitor"`
	Enabled            bool            `json:"enabled"`
	PersistenceProfile *aviPersistence `json:"persistence_profile,omitempty"`
}

type aviServer struct {
	IP              aviIPAddr `json:"ip"`
	Port            int       `json:"port"`
	Hostname        string    `json:"hostname"`
	Ratio           int       `json:"ratio"`
	Enabled         bool      `json:"enabled"`
	ConnectionLimit int       `json:"connection_limit,omitempty"`
}

type aviIPAddr struct {
	Addr string `json:"addr"`
	Type string `json:"type"`
}

type aviMonitor struct {
	Type           string         `json:"type"`
	HTTPMonitor    aviHTTPMonitor `json:"http_monitor"`
	MonitorPort    int            `json:"monitor_port"`
	ReceiveTimeout int            `json:"receive_timeout"`
	FailedChecks   int            `json:"failed_checks"`
	SendInterval   int            `json:"send_interval"`
}

type aviHTTPMonitor struct {
	HTTPMethod       string            `json:"http_method"`
	HTTPRequest      string            `json:"http_request"`
	HTTPResponseCode []aviResponseCode `json:"http_response_code"`
}

type aviResponseCode struct {
	Code string `json:"code"`
}

type aviPersistence struct {
	Type           string `json:"type"`
	CookieName     string `json:"cookie_name,omitempty"`
	Timeout        int    `json:"timeout,omitempty"`
	HTTPHeaderName string `json:"http_header_name,omitempty"`
}

type aviSSLProfile struct {
	Name              string          `json:"name"`
	CertificateRefs   []string        `json:"certificate_refs"`
	SSLProfileRef     string          `json:"ssl_profile_ref"`
	Enabled           bool            `json:"enabled"`
	AcceptedVersions  []aviSSLVersion `json:"accepted_versions"`
	CipherSuites      string          `json:"cipher_suites,omitempty"`
	ClientAuth        bool            `json:"client_auth,omitempty"`
	CACerts           []string        `json:"ca_certs,omitempty"`
	ClientAuthRequire *bool           `json:"client_auth_require,omitempty"`
	ValidateDepth     int             `json:"validate_depth,omitempty"`
}

type aviSSLVersion struct {
	Type string `json:"type"`
}

type aviAppProfile struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	HTTPProfile aviHTTPProfile `json:"http_profile"`
}

type aviHTTPProfile struct {
	XForwardedProtoEnabled bool `json:"x_forwarded_proto_enabled"`
	XForwardedForEnabled   bool `json:"x_forwarded_for_enabled"`
	HSTSEnabled            bool `json:"hsts_enabled,omitempty"`
	HSTSMaxAge             int  `json:"hsts_max_age,omitempty"`
	HSTSSubdomainsEnabled  bool `json:"hsts_subdomains_enabled,omitempty"`
	HSTSPreloadEnabled     bool `json:"hsts_preload_enabled,omitempty"`
}

type aviVirtualService struct {
	Name                  string          `json:"name"`
	Enabled               bool            `json:"enabled"`
	Services              []aviService    `json:"services"`
	VIP                   []aviVIP        `json:"vip"`
	PoolRef               string          `json:"pool_ref"`
	ApplicationProfileRef string          `json:"application_profile_ref"`
	NetworkProfileRef     string          `json:"network_profile_ref"`
	SSLProfileRef         string          `json:"ssl_profile_ref,omitempty"`
	SSLKeyAndCertRefs     []string        `json:"ssl_key_and_certificate_refs,omitempty"`
	ConnectionLimit       int             `json:"connection_limit,omitempty"`
	HTTPPolicies          []aviHTTPPolicy `json:"http_policies,omitempty"`
}

type aviService struct {
	Port      int  `json:"port"`
	EnableSSL bool `json:"enable_ssl"`
}

type aviVIP struct {
	IPAddress aviIPAddr `json:"ip_address"`
	Enabled   bool      `json:"enabled"`
}

type aviHTTPPolicy struct {
	Name              string           `json:"name"`
	HTTPRequestPolicy aviRequestPolicy `json:"http_request_policy"`
}

type aviRequestPolicy struct {
	Rules []aviPolicyRule `json:"rules"`
}

type aviPolicyRule struct {
	Name           string            `json:"name"`
	RedirectAction aviRedirectAction `json:"redirect_action"`
}

type aviRedirectAction struct {
	Protocol   string `json:"protocol"`
	Port       int    `json:"port"`
	StatusCode string `json:"status_code"`
}

// aviAlgorithm maps the standardized algorithm onto the AVI LB_ALGORITHM
// constant. Unmapped algorithms fall back to round robin.
func aviAlgorithm(algorithm schema.Algorithm) string {
	switch algorithm {
	case schema.AlgorithmRoundRobin:
		return "LB_ALGORITHM_ROUND_ROBIN"
	case schema.AlgorithmLeastConnections:
		return "LB_ALGORITHM_LEAST_CONNECTIONS"
	case schema.AlgorithmIPHash:
		return "LB_ALGORITHM_CONSISTENT_HASH"
	case schema.AlgorithmLeastRequests:
		return "LB_ALGORITHM_FEWEST_SERVERS"
	case schema.AlgorithmFastestResponse:
		return "LB_ALGORITHM_FASTEST_RESPONSE"
	case schema.AlgorithmWeightedRoundRobin:
		return "LB_ALGORITHM_ROUND_ROBIN"
	default:
		return "LB_ALGORITHM_ROUND_ROBIN"
	}
}

// aviPersistenceType maps the standardized persistence type onto the AVI
// PERSISTENCE_TYPE constant.
func aviPersistenceType(t schema.PersistenceType) string {
	switch t {
	case schema.PersistenceSourceIP:
		return "PERSISTENCE_TYPE_CLIENT_IP_ADDRESS"
	case schema.PersistenceCookie:
		return "PERSISTENCE_TYPE_HTTP_COOKIE"
	case schema.PersistenceAppCookie:
		return "PERSISTENCE_TYPE_APP_COOKIE"
	case schema.PersistenceHTTPHeader:
		return "PERSISTENCE_TYPE_CUSTOM_HTTP_HEADER"
	case schema.PersistenceTLSSessionID:
		return "PERSISTENCE_TYPE_TLS"
	case schema.PersistenceCustom:
		return "PERSISTENCE_TYPE_CUSTOM_SERVER"
	default:
		return "PERSISTENCE_TYPE_NONE"
	}
}

// Generate renders the AVI controller document as indented JSON.
func (t *AVITranslator) Generate(cfg *schema.StandardConfig) (string, error) {
	doc := indexDocument(cfg)
	vs := cfg.VirtualServer

	pool, ok := doc.poolByID(vs.PoolID)
	if !ok {
		return "", apperrors.NewUnresolvedReferenceError("pool_id", vs.PoolID)
	}

	servers := make([]aviServer, 0, len(pool.Members))
	for _, m := range pool.Members {
		servers = append(servers, aviServer{
			IP:              aviIPAddr{Addr: m.IPAddress, Type: "V4"},
			Port:            m.Port,
			Hostname:        m.Name,
			Ratio:           m.Weight,
			Enabled:         m.Enabled,
			ConnectionLimit: m.ConnectionLimit,
		})
	}

	var responseCodes []aviResponseCode
	for _, code := range strings.Split(pool.Monitor.ExpectedCodes, ",") {
		responseCodes = append(responseCodes, aviResponseCode{Code: strings.TrimSpace(code)})
	}

	aviPoolDoc := aviPool{
		Name:              pool.Name,
		Servers:           servers,
		LBAlgorithm:       aviAlgorithm(pool.Algorithm),
		HealthMonitorRefs: []string{"/api/healthmonitor?name=System-HTTP"},
		HealthMonitor: aviMonitor{
			Type: string(pool.Monitor.Type),
			HTTPMonitor: aviHTTPMonitor{
				HTTPMethod:       pool.Monitor.HTTPMethod,
				HTTPRequest:      pool.Monitor.HTTPPath,
				HTTPResponseCode: responseCodes,
			},
			ReceiveTimeout: pool.Monitor.Timeout,
			FailedChecks:   pool.Monitor.Retries,
			SendInterval:   pool.Monitor.Interval,
		},
		Enabled: true,
	}

	if pool.Persistence.Type != schema.PersistenceNone && pool.Persistence.Type != "" {
		persistence := &aviPersistence{Type: aviPersistenceType(pool.Persistence.Type)}
		switch pool.Persistence.Type {
		case schema.PersistenceCookie, schema.PersistenceAppCookie:
			persistence.CookieName = pool.Persistence.CookieName
			if persistence.CookieName == "" {
				persistence.CookieName = "SERVERID"
			}
			persistence.Timeout = pool.Persistence.Timeout
		case schema.PersistenceHTTPHeader:
			persistence.HTTPHeaderName = pool.Persistence.HeaderName
			if persistence.HTTPHeaderName == "" {
				persistence.HTTPHeaderName = "X-Persistence"
			}
		}
		aviPoolDoc.PersistenceProfile = persistence
	}

	var sslProfile *aviSSLProfile
	if vs.SSL.Enabled {
		if cert, ok := doc.certificateByID(vs.SSL.CertificateID); ok {
			profile := &aviSSLProfile{
				Name:             "ssl-" + cert.Name,
				CertificateRefs:  []string{fmt.Sprintf("/api/sslkeyandcertificate?name=%s", cert.Name)},
				SSLProfileRef:    "/api/sslprofile?name=System-Standard",
				Enabled:          true,
				AcceptedVersions: []aviSSLVersion{},
				CipherSuites:     vs.SSL.Ciphers,
			}
			for _, protocol := range vs.SSL.Protocols {
				switch protocol {
				case "TLSv1.2":
					profile.AcceptedVersions = append(profile.AcceptedVersions, aviSSLVersion{Type: "SSL_VERSION_TLS1_2"})
				case "TLSv1.3":
					profile.AcceptedVersions = append(profile.AcceptedVersions, aviSSLVersion{Type: "SSL_VERSION_TLS1_3"})
				}
			}
			if vs.MTLS.Enabled && vs.MTLS.ClientAuthType != schema.ClientAuthNone {
				if caCert, ok := doc.certificateByID(vs.MTLS.ClientCACertID); ok {
					required := vs.MTLS.ClientAuthType == schema.ClientAuthRequired
					profile.ClientAuth = true
					profile.CACerts = []string{fmt.Sprintf("/api/sslkeyandcertificate?name=%s", caCert.Name)}
					profile.ClientAuthRequire = &required
					profile.ValidateDepth = vs.MTLS.VerifyDepth
				}
			}
			sslProfile = profile
		}
	}

	appProfile := aviAppProfile{
		Name: "http-" + vs.Name,
		Type: "APPLICATION_PROFILE_TYPE_HTTP",
		HTTPProfile: aviHTTPProfile{
			XForwardedProtoEnabled: vs.HTTP.XForwardedProto,
			XForwardedForEnabled:   vs.HTTP.XForwardedFor,
		},
	}
	if vs.SSL.Enabled && vs.HTTP.HSTSEnabled {
		appProfile.HTTPProfile.HSTSEnabled = true
		appProfile.HTTPProfile.HSTSMaxAge = vs.HTTP.HSTSMaxAge
		appProfile.HTTPProfile.HSTSSubdomainsEnabled = vs.HTTP.HSTSIncludeSubdoms
		appProfile.HTTPProfile.HSTSPreloadEnabled = vs.HTTP.HSTSPreload
	}

	service := aviVirtualService{
		Name:    vs.Name,
		Enabled: vs.Enabled,
		Services: []aviService{
			{Port: vs.Port, EnableSSL: vs.SSL.Enabled},
		},
		VIP: []aviVIP{
			{IPAddress: aviIPAddr{Addr: vs.IPAddress, Type: "V4"}, Enabled: true},
		},
		PoolRef:               fmt.Sprintf("/api/pool?name=%s", pool.Name),
		ApplicationProfileRef: fmt.Sprintf("/api/applicationprofile?name=%s", appProfile.Name),
		NetworkProfileRef:     "/api/networkprofile?name=System-TCP-Proxy",
		ConnectionLimit:       vs.ConnectionLimit,
	}
	if sslProfile != nil {
		service.SSLProfileRef = fmt.Sprintf("/api/sslprofile?name=%s", sslProfile.Name)
		service.SSLKeyAndCertRefs = sslProfile.CertificateRefs
	}
	if vs.HTTP.RedirectHTTPToHTTPS {
		service.HTTPPolicies = []aviHTTPPolicy{
			{
				Name: "redirect-" + vs.Name,
				HTTPRequestPolicy: aviRequestPolicy{
					Rules: []aviPolicyRule{
						{
							Name: "redirect-http-to-https",
							RedirectAction: aviRedirectAction{
								Protocol:   "HTTPS",
								Port:       443,
								StatusCode: "HTTP_REDIRECT_STATUS_CODE_302",
							},
						},
					},
				},
			},
		}
	}

	out := aviDocument{
		Pools:               []aviPool{aviPoolDoc},
		VirtualServices:     []aviVirtualService{service},
		ApplicationProfiles: []aviAppProfile{appProfile},
		Tenant:              tenantOr(cfg.Metadata.Environment),
		Version:             "20.1.1",
		Description: fmt.Sprintf("Generated by %s for %s in %s",
			cfg.Metadata.CreatedBy, cfg.Metadata.Environment, cfg.Metadata.Datacenter),
	}
	if sslProfile != nil {
		out.SSLProfiles = []aviSSLProfile{*sslProfile}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", apperrors.WrapError(err, apperrors.ErrCodeInternalError, "translator", "failed to serialize AVI document")
	}
	return string(data), nil
}

func tenantOr(environment string) string {
	if environment == "" {
		return "admin"
	}
	return environment
}

// PostDeploy is a no-op for AVI; a real deployment would push the document
// to the controller API.
func (t *AVITranslator) PostDeploy(cfg *schema.StandardConfig, artifactPath string) (string, error) {
	return fmt.Sprintf("AVI configuration generated and saved to %s", artifactPath), nil
}
