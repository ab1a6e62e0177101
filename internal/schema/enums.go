package schema

import "strings"

// Protocol is the set of front-end protocols a virtual server can serve.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolTCP   Protocol = "tcp"
	ProtocolUDP   Protocol = "udp"
)

// Algorithm is the standardized load balancing algorithm vocabulary.
// Vendor translators map these onto their native method names.
type Algorithm string

const (
	AlgorithmRoundRobin         Algorithm = "round_robin"
	AlgorithmLeastConnections   Algorithm = "least_connections"
	AlgorithmIPHash             Algorithm = "ip_hash"
	AlgorithmLeastRequests      Algorithm = "least_requests"
	AlgorithmWeightedRoundRobin Algorithm = "weighted_round_robin"
	AlgorithmFastestResponse    Algorithm = "fastest_response"
)

// MonitorType identifies the probe used by pool health monitors.
type MonitorType string

const (
	MonitorHTTP  MonitorType = "http"
	MonitorHTTPS MonitorType = "https"
	MonitorTCP   MonitorType = "tcp"
	MonitorUDP   MonitorType = "udp"
	MonitorICMP  MonitorType = "icmp"
)

// PersistenceType is the standardized session persistence vocabulary.
type PersistenceType string

const (
	PersistenceNone         PersistenceType = "none"
	PersistenceSourceIP     PersistenceType = "source_ip"
	PersistenceCookie       PersistenceType = "cookie"
	PersistenceAppCookie    PersistenceType = "app_cookie"
	PersistenceHTTPHeader   PersistenceType = "http_header"
	PersistenceTLSSessionID PersistenceType = "tls_session_id"
	PersistenceCustom       PersistenceType = "custom"
)

// CertificateType identifies how certificate material is sourced.
type CertificateType string

const (
	CertSelfSigned  CertificateType = "self_signed"
	CertImported    CertificateType = "imported"
	CertManaged     CertificateType = "managed"
	CertLetsEncrypt CertificateType = "lets_encrypt"
)

// ClientAuthType is the client certificate requirement for mTLS listeners.
type ClientAuthType string

const (
	ClientAuthNone     ClientAuthType = "none"
	ClientAuthOptional ClientAuthType = "optional"
	ClientAuthRequired ClientAuthType = "required"
)

// NormalizeProtocol maps a free-form protocol string onto the closed
// vocabulary. Unrecognized values default to http; the builder is
// deliberately permissive so callers never fail on vocabulary drift.
func NormalizeProtocol(s string) Protocol {
	switch Protocol(lower(s)) {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolTCP, ProtocolUDP:
		return Protocol(lower(s))
	default:
		return ProtocolHTTP
	}
}

// NormalizeAlgorithm maps a free-form algorithm string onto the closed
// vocabulary, accepting the common aliases seen in intake payloads.
// Unrecognized values default to round_robin.
func NormalizeAlgorithm(s string) Algorithm {
	switch Algorithm(lower(s)) {
	case AlgorithmRoundRobin, AlgorithmLeastConnections, AlgorithmIPHash,
		AlgorithmLeastRequests, AlgorithmWeightedRoundRobin, AlgorithmFastestResponse:
		return Algorithm(lower(s))
	}
	switch lower(s) {
	case "round-robin":
		return AlgorithmRoundRobin
	case "least_conn":
		return AlgorithmLeastConnections
	default:
		return AlgorithmRoundRobin
	}
}

// NormalizePersistence maps a free-form persistence string onto the closed
// vocabulary. Unrecognized values default to none.
func NormalizePersistence(s string) PersistenceType {
	switch PersistenceType(lower(s)) {
	case PersistenceNone, PersistenceSourceIP, PersistenceCookie, PersistenceAppCookie,
		PersistenceHTTPHeader, PersistenceTLSSessionID, PersistenceCustom:
		return PersistenceType(lower(s))
	default:
		return PersistenceNone
	}
}

// NormalizeClientAuth maps a free-form client auth string onto the closed
// vocabulary. Unrecognized values default to none.
func NormalizeClientAuth(s string) ClientAuthType {
	switch ClientAuthType(lower(s)) {
	case ClientAuthNone, ClientAuthOptional, ClientAuthRequired:
		return ClientAuthType(lower(s))
	default:
		return ClientAuthNone
	}
}

func lower(s string) string { return strings.ToLower(s) }
