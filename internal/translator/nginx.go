package translator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/schema"
)

// NGINXTranslator renders a standard configuration as a self-contained
// nginx.conf text block (events{} plus http{ upstream{} server{} }).
type NGINXTranslator struct{}

// FileExtension returns the artifact extension for NGINX configurations.
func (t *NGINXTranslator) FileExtension() string { return "conf" }

// sanitizeName rewrites characters NGINX identifiers cannot carry. Upstream
// names derived from FQDNs contain dots and dashes; both become
// underscores.
func sanitizeName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

// Generate renders the NGINX configuration. Output is deterministic:
// directives appear in a fixed order and members in input order, since
// declaration order decides backup priority.
func (t *NGINXTranslator) Generate(cfg *schema.StandardConfig) (string, error) {
	doc := indexDocument(cfg)
	vs := cfg.VirtualServer

	pool, ok := doc.poolByID(vs.PoolID)
	if !ok {
		return "", apperrors.NewUnresolvedReferenceError("pool_id", vs.PoolID)
	}

	ssl := vs.SSL
	mtls := vs.MTLS
	upstream := sanitizeName(pool.Name)

	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("# NGINX Load Balancer Configuration for %s", vs.Name)
	add("# Environment: %s", cfg.Metadata.Environment)
	add("# Datacenter: %s", cfg.Metadata.Datacenter)
	add("# Generated by: %s", cfg.Metadata.CreatedBy)
	add("")
	add("events {")
	add("    worker_connections 1024;")
	add("}")
	add("")
	add("http {")
	add("    include       /etc/nginx/mime.types;")
	add("    default_type  application/octet-stream;")
	add("")
	add(`    log_format  main  '$remote_addr - $remote_user [$time_local] "$request" '`)
	add(`                      '$status $body_bytes_sent "$http_referer" '`)
	add(`                      '"$http_user_agent" "$http_x_forwarded_for"';`)
	add("")
	add("    access_log  /var/log/nginx/access.log  main;")
	add("")
	add("    sendfile        on;")
	add("    keepalive_timeout  65;")
	add("")
	add("    upstream %s {", upstream)

	// Algorithm-level directives. Round robin is the implicit default;
	// least_requests and fastest_response have no NGINX equivalent and fall
	// back to it. Source IP persistence is expressed at this level too.
	useIPHash := pool.Algorithm == schema.AlgorithmIPHash ||
		pool.Persistence.Type == schema.PersistenceSourceIP
	switch {
	case pool.Algorithm == schema.AlgorithmLeastConnections:
		add("        least_conn;")
	case useIPHash:
		add("        ip_hash;")
	default:
		add("        # Using default round robin")
	}

	if pool.Persistence.Type == schema.PersistenceCookie {
		cookieName := pool.Persistence.CookieName
		if cookieName == "" {
			cookieName = "SERVERID"
		}
		cookiePath := pool.Persistence.CookiePath
		if cookiePath == "" {
			cookiePath = "/"
		}
		add("        # Cookie-based persistence")
		add("        sticky cookie %s expires=%ds path=%s;", cookieName, pool.Persistence.Timeout, cookiePath)
	}

	for _, member := range pool.Members {
		line := fmt.Sprintf("        server %s:%d weight=%d", member.IPAddress, member.Port, member.Weight)
		if member.Backup {
			line += " backup"
		}
		if member.MaxConnections > 0 {
			line += fmt.Sprintf(" max_conns=%d", member.MaxConnections)
		}
		add("%s;", line)
	}

	add("    }")
	add("")
	add("    server {")

	if ssl.Enabled {
		add("        listen %d ssl;", vs.Port)
		if cert, ok := doc.certificateByID(ssl.CertificateID); ok {
			add("        ssl_certificate     /etc/nginx/ssl/%s.crt;", cert.Name)
			add("        ssl_certificate_key /etc/nginx/ssl/%s.key;", cert.Name)
		}
		add("        ssl_protocols %s;", strings.Join(ssl.Protocols, " "))
		if ssl.Ciphers != "" {
			add("        ssl_ciphers %s;", ssl.Ciphers)
			if ssl.PreferServerCiphers {
				add("        ssl_prefer_server_ciphers on;")
			}
		}
		if ssl.SessionCache {
			add("        ssl_session_cache shared:SSL:10m;")
			add("        ssl_session_timeout %dm;", ssl.SessionTimeout)
		}
		if mtls.Enabled {
			switch mtls.ClientAuthType {
			case schema.ClientAuthRequired:
				add("        ssl_verify_client on;")
			case schema.ClientAuthOptional:
				add("        ssl_verify_client optional;")
			}
			if caCert, ok := doc.certificateByID(mtls.ClientCACertID); ok {
				add("        ssl_client_certificate /etc/nginx/ssl/%s.crt;", caCert.Name)
			}
			add("        ssl_verify_depth %d;", mtls.VerifyDepth)
			if mtls.CRLEnabled {
				add("        ssl_crl /etc/nginx/ssl/crl.pem;")
			}
		}
	} else {
		add("        listen %d;", vs.Port)
	}

	add("        server_name %s;", strings.TrimPrefix(vs.Name, "vs-"))

	if vs.HTTP.RedirectHTTPToHTTPS && !ssl.Enabled {
		add("        return 301 https://$host$request_uri;")
	} else {
		add("")
		add("        location / {")
		add("            proxy_pass http://%s;", upstream)
		if vs.HTTP.XForwardedFor {
			add("            proxy_set_header X-Real-IP $remote_addr;")
			add("            proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;")
		}
		if vs.HTTP.XForwardedProto {
			add("            proxy_set_header X-Forwarded-Proto $scheme;")
		}
		add("            proxy_set_header Host $host;")
		if vs.ConnectionLimit > 0 {
			add("            limit_conn conn_limit_per_ip %d;", vs.ConnectionLimit)
		}
		if ssl.Enabled && vs.HTTP.HSTSEnabled {
			hsts := fmt.Sprintf("max-age=%d", vs.HTTP.HSTSMaxAge)
			if vs.HTTP.HSTSIncludeSubdoms {
				hsts += "; includeSubDomains"
			}
			if vs.HTTP.HSTSPreload {
				hsts += "; preload"
			}
			add(`            add_header Strict-Transport-Security "%s" always;`, hsts)
		}
		add("        }")
	}

	add("    }")
	add("}")

	return strings.Join(lines, "\n"), nil
}

// PostDeploy stages placeholder certificate material next to the artifact
// when TLS or mTLS is in play. Real deployments would hand the artifact to
// a container runtime; this hook stays best-effort and filesystem-only.
func (t *NGINXTranslator) PostDeploy(cfg *schema.StandardConfig, artifactPath string) (string, error) {
	vs := cfg.VirtualServer
	if vs.SSL.Enabled || vs.MTLS.Enabled {
		sslDir := filepath.Join(filepath.Dir(artifactPath), "ssl")
		if err := os.MkdirAll(sslDir, 0o755); err != nil {
			return "", apperrors.NewDeploymentError("failed to create ssl directory", err)
		}
		for _, cert := range cfg.Certificates {
			crt := filepath.Join(sslDir, cert.Name+".crt")
			key := filepath.Join(sslDir, cert.Name+".key")
			if err := os.WriteFile(crt, []byte(fmt.Sprintf("# Placeholder for %s certificate\n", cert.Name)), 0o644); err != nil {
				return "", apperrors.NewDeploymentError("failed to write certificate placeholder", err)
			}
			if err := os.WriteFile(key, []byte(fmt.Sprintf("# Placeholder for %s private key\n", cert.Name)), 0o600); err != nil {
				return "", apperrors.NewDeploymentError("failed to write key placeholder", err)
			}
		}
	}
	return fmt.Sprintf("NGINX configuration generated for %s", vs.Name), nil
}
