// Package translator compiles vendor-neutral standard configurations into
// target-specific load balancer artifacts. Each supported target implements
// the Translator interface; validation, artifact persistence and deploy
// result shaping are shared by the package-level functions.
package translator

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/schema"
)

// Supported target labels. The selector is authoritative; the advisory
// metadata.lb_type field is never consulted for dispatch.
const (
	TypeNGINX = "NGINX"
	TypeF5    = "F5"
	TypeAVI   = "AVI"
)

// Translator generates a vendor-specific artifact from a validated standard
// configuration. Implementations are stateless and read-only with respect
// to the configuration document.
type Translator interface {
	// Generate produces the serialized vendor configuration. The input has
	// already passed Validate; implementations still treat a dangling pool
	// reference as fatal.
	Generate(cfg *schema.StandardConfig) (string, error)

	// FileExtension returns the artifact file extension without the dot.
	FileExtension() string

	// PostDeploy finishes deployment after the artifact is on disk and
	// returns a vendor status message. Failures abort the deployment but
	// never remove the written artifact.
	PostDeploy(cfg *schema.StandardConfig, artifactPath string) (string, error)
}

// ForType returns the translator for a target label. Unknown labels are a
// hard error: selecting the wrong generator would silently produce a
// plausible-looking but wrong artifact.
func ForType(lbType string) (Translator, error) {
	switch lbType {
	case TypeNGINX:
		return &NGINXTranslator{}, nil
	case TypeF5:
		return &F5Translator{}, nil
	case TypeAVI:
		return &AVITranslator{}, nil
	default:
		return nil, apperrors.NewUnsupportedTargetError(lbType)
	}
}

// SupportedTypes lists the target labels ForType accepts.
func SupportedTypes() []string {
	return []string{TypeNGINX, TypeF5, TypeAVI}
}

// document indexes a standard configuration for id lookups. The indexes are
// built once per document; first match wins when ids collide, preserving
// linear-scan tie-breaking.
type document struct {
	pools map[string]*schema.Pool
	certs map[string]*schema.Certificate
}

func indexDocument(cfg *schema.StandardConfig) *document {
	doc := &document{
		pools: make(map[string]*schema.Pool, len(cfg.Pools)),
		certs: make(map[string]*schema.Certificate, len(cfg.Certificates)),
	}
	for i := range cfg.Pools {
		if _, ok := doc.pools[cfg.Pools[i].ID]; !ok {
			doc.pools[cfg.Pools[i].ID] = &cfg.Pools[i]
		}
	}
	for i := range cfg.Certificates {
		if _, ok := doc.certs[cfg.Certificates[i].ID]; !ok {
			doc.certs[cfg.Certificates[i].ID] = &cfg.Certificates[i]
		}
	}
	return doc
}

// poolByID returns the pool for an id, or ok=false when absent. Callers
// decide whether absence is fatal.
func (d *document) poolByID(id string) (*schema.Pool, bool) {
	p, ok := d.pools[id]
	return p, ok
}

// certificateByID returns the certificate for an id, or ok=false when
// absent.
func (d *document) certificateByID(id string) (*schema.Certificate, bool) {
	c, ok := d.certs[id]
	return c, ok
}

// Validate is the sole correctness gate in front of the generators. It
// checks structural completeness and referential consistency; every failure
// names the missing field or unresolved id. A translator must never be
// invoked on a configuration that fails any of these checks.
func Validate(cfg *schema.StandardConfig) error {
	if cfg == nil {
		return apperrors.NewValidationError("Missing required section: metadata")
	}
	if cfg.Metadata == (schema.Metadata{}) {
		return apperrors.NewValidationError("Missing required section: metadata")
	}
	// An absent virtual_server section deserializes to the zero value and
	// is reported through the per-field checks below.
	vs := cfg.VirtualServer
	switch {
	case vs.ID == "":
		return apperrors.NewValidationError("Missing required virtual server field: id")
	case vs.Name == "":
		return apperrors.NewValidationError("Missing required virtual server field: name")
	case vs.IPAddress == "":
		return apperrors.NewValidationError("Missing required virtual server field: ip_address")
	case vs.Port == 0:
		return apperrors.NewValidationError("Missing required virtual server field: port")
	case vs.Protocol == "":
		return apperrors.NewValidationError("Missing required virtual server field: protocol")
	case vs.PoolID == "":
		return apperrors.NewValidationError("Missing required virtual server field: pool_id")
	}

	if len(cfg.Pools) == 0 {
		return apperrors.NewValidationError("At least one pool must be defined")
	}

	doc := indexDocument(cfg)
	if _, ok := doc.poolByID(vs.PoolID); !ok {
		return apperrors.NewUnresolvedReferenceError("pool_id", vs.PoolID)
	}

	if vs.Protocol == schema.ProtocolHTTPS && !vs.SSL.Enabled {
		return apperrors.NewValidationError("SSL must be enabled for HTTPS protocol")
	}
	if vs.SSL.Enabled {
		if vs.SSL.CertificateID == "" {
			return apperrors.NewValidationError("Certificate ID must be specified for SSL")
		}
		if _, ok := doc.certificateByID(vs.SSL.CertificateID); !ok {
			return apperrors.NewUnresolvedReferenceError("certificate_id", vs.SSL.CertificateID)
		}
	}
	if vs.MTLS.Enabled {
		if vs.MTLS.ClientCACertID == "" {
			return apperrors.NewValidationError("Client CA certificate ID must be specified for mTLS")
		}
		if _, ok := doc.certificateByID(vs.MTLS.ClientCACertID); !ok {
			return apperrors.NewUnresolvedReferenceError("client_ca_cert_id", vs.MTLS.ClientCACertID)
		}
	}
	return nil
}

// Translate validates the configuration and runs the vendor generator.
// Translating the same document twice yields byte-identical artifacts.
func Translate(t Translator, cfg *schema.StandardConfig) (string, error) {
	if err := Validate(cfg); err != nil {
		return "", err
	}
	return t.Generate(cfg)
}

// DeployResult is the structured outcome of a deployment attempt. Both
// success and failure carry ConfigPath whenever one was computed, so
// callers can distinguish "no artifact produced" from "artifact produced,
// activation failed".
type DeployResult struct {
	Success    bool   `json:"success"`
	ConfigPath string `json:"config_path,omitempty"`
	LBType     string `json:"lb_type,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Deploy translates the configuration, persists the artifact under
// outputDir/<virtual server name>.<ext>, then runs the vendor post-deploy
// hook. The artifact write is atomic (temp file + rename) so the hook never
// observes a partially written file. Every failure is converted into a
// DeployResult rather than propagated.
func Deploy(t Translator, cfg *schema.StandardConfig, outputDir string) DeployResult {
	artifact, err := Translate(t, cfg)
	if err != nil {
		return DeployResult{Success: false, Error: fmt.Sprintf("Exception during deployment: %v", err)}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return DeployResult{Success: false, Error: fmt.Sprintf("Exception during deployment: %v", err)}
	}

	configPath := filepath.Join(outputDir, cfg.VirtualServer.Name+"."+t.FileExtension())
	if err := writeFileAtomic(configPath, []byte(artifact)); err != nil {
		return DeployResult{Success: false, Error: fmt.Sprintf("Exception during deployment: %v", err)}
	}

	result := DeployResult{
		ConfigPath: configPath,
		LBType:     cfg.Metadata.LBType,
	}
	message, err := t.PostDeploy(cfg, configPath)
	if err != nil {
		result.Success = false
		result.Error = fmt.Sprintf("Exception during deployment: %v", err)
		return result
	}
	result.Success = true
	result.Message = message
	return result
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so concurrent readers never see a partial write.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
