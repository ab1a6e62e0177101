package service

import (
	"strings"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/repository"
	"github.com/dpaschgit/lbaasv1/internal/schema"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// PromotionService moves a stored configuration between environments. The
// flow is two-phase: prepare returns a relabeled copy with the fields the
// caller must re-specify, execute stores the finalized copy under a new
// environment-prefixed VIP id.
type PromotionService struct {
	configs repository.ConfigRepository
	logger  *logger.Logger
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(configs repository.ConfigRepository, log *logger.Logger) *PromotionService {
	return &PromotionService{configs: configs, logger: log}
}

// PromotionPlan is the prepared promotion returned for caller review.
type PromotionPlan struct {
	SourceConfig          *repository.StoredConfig `json:"source_config"`
	PromotedConfig        *schema.StandardConfig   `json:"promoted_config"`
	TargetEnvironment     string                   `json:"target_environment"`
	TargetDatacenter      string                   `json:"target_datacenter"`
	TargetLBType          string                   `json:"target_lb_type"`
	FieldsRequiringUpdate []string                 `json:"fields_requiring_update"`
}

// Prepare copies the stored configuration for a VIP, relabels it for the
// target location and clears the fields that cannot carry over. The VIP
// address is environment-specific so it is blanked; certificates usually
// need re-issuing in the new environment.
func (s *PromotionService) Prepare(vipID, targetEnvironment, targetDatacenter, targetLBType string) (*PromotionPlan, error) {
	source, err := s.configs.Get(vipID)
	if err != nil {
		return nil, err
	}

	promoted, err := cloneConfig(source.Config)
	if err != nil {
		return nil, err
	}
	promoted.Metadata.Environment = targetEnvironment
	promoted.Metadata.Datacenter = targetDatacenter
	promoted.Metadata.LBType = targetLBType
	promoted.VirtualServer.IPAddress = ""

	return &PromotionPlan{
		SourceConfig:      source,
		PromotedConfig:    promoted,
		TargetEnvironment: targetEnvironment,
		TargetDatacenter:  targetDatacenter,
		TargetLBType:      targetLBType,
		FieldsRequiringUpdate: []string{
			"virtual_server.ip_address",
			"certificates",
		},
	}, nil
}

// Execute stores a finalized promoted configuration. The new record gets an
// environment-prefixed VIP id so the same service can exist in several
// environments at once.
func (s *PromotionService) Execute(vipID string, promoted *schema.StandardConfig, targetEnvironment, targetDatacenter, targetLBType, user string) (string, error) {
	if promoted == nil {
		return "", apperrors.NewError(apperrors.ErrCodeInvalidRequest, "promotion", "promoted configuration cannot be nil")
	}

	newVIPID := strings.ToLower(targetEnvironment) + "-" + vipID
	if _, err := s.configs.Store(newVIPID, promoted, targetEnvironment, targetDatacenter, targetLBType, user); err != nil {
		return "", err
	}

	s.logger.WithFields(map[string]interface{}{
		"source_vip_id": vipID,
		"new_vip_id":    newVIPID,
		"environment":   targetEnvironment,
		"datacenter":    targetDatacenter,
		"lb_type":       targetLBType,
	}).Info("configuration promoted")
	return newVIPID, nil
}

// cloneConfig deep-copies a standard configuration through its JSON form so
// plan mutations never leak into the stored record.
func cloneConfig(cfg *schema.StandardConfig) (*schema.StandardConfig, error) {
	data, err := cfg.ToJSON()
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "promotion", "failed to copy configuration")
	}
	clone, err := schema.FromJSON(data)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "promotion", "failed to copy configuration")
	}
	return clone, nil
}
