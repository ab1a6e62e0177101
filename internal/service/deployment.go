// Package service implements the orchestration on top of the translation
// core: deploying VIPs to their placed load balancers, promoting stored
// configurations between environments and migrating them between load
// balancer types.
package service

import (
	"github.com/dpaschgit/lbaasv1/internal/domain"
	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/repository"
	"github.com/dpaschgit/lbaasv1/internal/schema"
	"github.com/dpaschgit/lbaasv1/internal/translator"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// DeploymentService builds the IR for a VIP record, runs the selected
// vendor translator and records the standard configuration for later
// promotion or migration.
type DeploymentService struct {
	registry  repository.RegistryRepository
	configs   repository.ConfigRepository
	outputDir string
	logger    *logger.Logger
}

// NewDeploymentService creates a new deployment service writing artifacts
// under outputDir.
func NewDeploymentService(registry repository.RegistryRepository, configs repository.ConfigRepository, outputDir string, log *logger.Logger) *DeploymentService {
	return &DeploymentService{
		registry:  registry,
		configs:   configs,
		outputDir: outputDir,
		logger:    log,
	}
}

// Placement decides where a VIP lands. The load balancer type drives
// translator selection; environment and datacenter must name an active
// registered appliance.
type Placement struct {
	LBType      string `json:"lb_type"`
	Environment string `json:"environment"`
	Datacenter  string `json:"datacenter"`
}

// resolvePlacement confirms an active appliance of the requested type
// exists at the placement location.
func (s *DeploymentService) resolvePlacement(placement Placement) (*domain.LoadBalancer, error) {
	candidates, err := s.registry.List(domain.LBFilter{
		LBType:      placement.LBType,
		Environment: placement.Environment,
		Datacenter:  placement.Datacenter,
		Status:      domain.LBStatusActive,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperrors.NewError(
			apperrors.ErrCodeInvalidRequest,
			"deployment",
			"no active "+placement.LBType+" load balancer registered in "+placement.Environment+"/"+placement.Datacenter,
		)
	}
	return candidates[0], nil
}

// BuildStandardConfig assembles the IR for a VIP and placement without
// deploying it.
func (s *DeploymentService) BuildStandardConfig(vip *domain.VIP, placement Placement) *schema.StandardConfig {
	intent := schema.VIPIntent{
		FQDN:        vip.FQDN,
		IPAddress:   vip.IPAddress,
		Port:        vip.Port,
		Protocol:    vip.Protocol,
		Environment: vip.Environment,
		Datacenter:  vip.Datacenter,
		LBMethod:    vip.LBMethod,
	}
	if vip.Persistence != nil {
		intent.PersistenceType = vip.Persistence.Type
		intent.PersistenceTimeout = vip.Persistence.Timeout
	}
	if vip.Monitor.Send != "" {
		intent.MonitorHTTPPath = vip.Monitor.Send
	}
	if vip.Monitor.Receive != "" {
		intent.MonitorExpectedText = vip.Monitor.Receive
	}
	if vip.MTLSCACertName != "" {
		intent.MTLSEnabled = true
		intent.ClientAuthType = string(schema.ClientAuthRequired)
	}

	servers := make([]schema.ServerInput, 0, len(vip.Pool))
	for _, member := range vip.Pool {
		servers = append(servers, schema.ServerInput{
			IPAddress: member.IP,
			Port:      member.Port,
		})
	}

	return schema.BuildStandardConfig(intent, servers, schema.PlacementDecision{
		LBType:      placement.LBType,
		Environment: placement.Environment,
		Datacenter:  placement.Datacenter,
	})
}

// Deploy translates the VIP for its placement and writes the artifact. The
// standard configuration is stored on success so the VIP can later be
// promoted or migrated. Translator selection failures are returned as
// errors; deployment failures are data in the result.
func (s *DeploymentService) Deploy(vip *domain.VIP, placement Placement) (translator.DeployResult, error) {
	lb, err := s.resolvePlacement(placement)
	if err != nil {
		return translator.DeployResult{}, err
	}

	t, err := translator.ForType(placement.LBType)
	if err != nil {
		return translator.DeployResult{}, err
	}

	cfg := s.BuildStandardConfig(vip, placement)
	result := translator.Deploy(t, cfg, s.outputDir)

	log := s.logger.WithFields(map[string]interface{}{
		"vip_id":   vip.ID,
		"vip_fqdn": vip.FQDN,
		"lb_type":  placement.LBType,
		"lb_name":  lb.Name,
	})
	if !result.Success {
		log.WithField("error", result.Error).Warn("VIP deployment failed")
		return result, nil
	}

	if _, err := s.configs.Store(vip.ID, cfg, placement.Environment, placement.Datacenter, placement.LBType, vip.Owner); err != nil {
		log.WithField("error", err.Error()).Warn("deployed but failed to store configuration")
		return result, nil
	}

	log.WithField("config_path", result.ConfigPath).Info("VIP deployed")
	return result, nil
}
