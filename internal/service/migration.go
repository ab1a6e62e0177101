package service

import (
	"fmt"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/repository"
	"github.com/dpaschgit/lbaasv1/internal/schema"
	"github.com/dpaschgit/lbaasv1/internal/translator"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// MigrationService moves a stored configuration between load balancer
// types in place. Like promotion it is two-phase: prepare relabels a copy
// and flags the sections whose vendor mapping differs, execute overwrites
// the stored record with the reviewed copy.
type MigrationService struct {
	configs repository.ConfigRepository
	logger  *logger.Logger
}

// NewMigrationService creates a new migration service.
func NewMigrationService(configs repository.ConfigRepository, log *logger.Logger) *MigrationService {
	return &MigrationService{configs: configs, logger: log}
}

// MigrationPlan is the prepared migration returned for caller review.
type MigrationPlan struct {
	SourceConfig          *repository.StoredConfig `json:"source_config"`
	MigratedConfig        *schema.StandardConfig   `json:"migrated_config"`
	SourceLBType          string                   `json:"source_lb_type"`
	TargetLBType          string                   `json:"target_lb_type"`
	FieldsRequiringReview []string                 `json:"fields_requiring_review"`
}

// Compatibility summarizes how a feature set survives a migration.
type Compatibility struct {
	CompatibleFeatures   []string `json:"compatible_features"`
	IncompatibleFeatures []string `json:"incompatible_features"`
	Warnings             []string `json:"warnings"`
}

// Prepare copies the stored configuration for a VIP and relabels it for
// the target load balancer type. The target must be a supported translator
// so the relabeled copy can actually be regenerated.
func (s *MigrationService) Prepare(vipID, targetLBType string) (*MigrationPlan, error) {
	if _, err := translator.ForType(targetLBType); err != nil {
		return nil, err
	}

	source, err := s.configs.Get(vipID)
	if err != nil {
		return nil, err
	}

	migrated, err := cloneConfig(source.Config)
	if err != nil {
		return nil, err
	}
	migrated.Metadata.LBType = targetLBType

	return &MigrationPlan{
		SourceConfig:   source,
		MigratedConfig: migrated,
		SourceLBType:   source.LBType,
		TargetLBType:   targetLBType,
		FieldsRequiringReview: []string{
			"persistence",
			"ssl",
			"mtls",
		},
	}, nil
}

// Execute overwrites the stored configuration for a VIP with the reviewed
// migrated copy. Environment and datacenter are kept from the current
// record; only the load balancer type changes.
func (s *MigrationService) Execute(vipID string, migrated *schema.StandardConfig, targetLBType, user string) (string, error) {
	if migrated == nil {
		return "", apperrors.NewError(apperrors.ErrCodeInvalidRequest, "migration", "migrated configuration cannot be nil")
	}

	current, err := s.configs.Get(vipID)
	if err != nil {
		return "", err
	}

	if _, err := s.configs.Store(vipID, migrated, current.Environment, current.Datacenter, targetLBType, user); err != nil {
		return "", err
	}

	s.logger.WithFields(map[string]interface{}{
		"vip_id":         vipID,
		"source_lb_type": current.LBType,
		"target_lb_type": targetLBType,
	}).Info("configuration migrated")
	return vipID, nil
}

// CheckCompatibility classifies requested features for a migration between
// two load balancer types. Plain HTTP and HTTPS carry everywhere;
// persistence modes only survive the migration paths whose vendor mappings
// are equivalent; mTLS has first-class support on hardware and controller
// platforms but only basic verification elsewhere.
func (s *MigrationService) CheckCompatibility(sourceLBType, targetLBType string, features []string) Compatibility {
	result := Compatibility{
		CompatibleFeatures:   []string{},
		IncompatibleFeatures: []string{},
		Warnings:             []string{},
	}

	for _, feature := range features {
		switch feature {
		case "basic_http", "basic_https":
			result.CompatibleFeatures = append(result.CompatibleFeatures, feature)
		case "cookie_persistence", "source_ip_persistence":
			switch {
			case sourceLBType == translator.TypeNGINX && targetLBType == translator.TypeF5:
				result.CompatibleFeatures = append(result.CompatibleFeatures, feature)
			case sourceLBType == translator.TypeF5 && targetLBType == translator.TypeAVI:
				result.CompatibleFeatures = append(result.CompatibleFeatures, feature)
			default:
				result.IncompatibleFeatures = append(result.IncompatibleFeatures, feature)
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Feature %s is not compatible between %s and %s", feature, sourceLBType, targetLBType))
			}
		case "mtls":
			if targetLBType == translator.TypeF5 || targetLBType == translator.TypeAVI {
				result.CompatibleFeatures = append(result.CompatibleFeatures, feature)
			} else {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Feature %s may have limited support in %s", feature, targetLBType))
			}
		default:
			result.IncompatibleFeatures = append(result.IncompatibleFeatures, feature)
			result.Warnings = append(result.Warnings, fmt.Sprintf("Unknown feature %s", feature))
		}
	}

	return result
}
