package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/repository"
)

func TestMigrationPrepare(t *testing.T) {
	t.Parallel()

	configs := repository.NewInMemoryConfigRepository()
	source := storedConfig(t, configs, "vip-1")
	svc := NewMigrationService(configs, testLogger(t))

	plan, err := svc.Prepare("vip-1", "F5")
	require.NoError(t, err)

	assert.Equal(t, source, plan.SourceConfig)
	assert.Equal(t, "NGINX", plan.SourceLBType)
	assert.Equal(t, "F5", plan.TargetLBType)
	assert.Equal(t, []string{"persistence", "ssl", "mtls"}, plan.FieldsRequiringReview)
	assert.Equal(t, "F5", plan.MigratedConfig.Metadata.LBType)

	// The stored record keeps its original labeling.
	assert.Equal(t, "NGINX", source.Config.Metadata.LBType)
}

func TestMigrationPrepareRejectsUnknownTarget(t *testing.T) {
	t.Parallel()

	configs := repository.NewInMemoryConfigRepository()
	storedConfig(t, configs, "vip-1")
	svc := NewMigrationService(configs, testLogger(t))

	_, err := svc.Prepare("vip-1", "XYZ")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnsupportedTarget, apperrors.GetErrorCode(err))
}

func TestMigrationPrepareNotFound(t *testing.T) {
	t.Parallel()

	svc := NewMigrationService(repository.NewInMemoryConfigRepository(), testLogger(t))
	_, err := svc.Prepare("missing", "F5")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetErrorCode(err))
}

func TestMigrationExecuteKeepsPlacement(t *testing.T) {
	t.Parallel()

	configs := repository.NewInMemoryConfigRepository()
	storedConfig(t, configs, "vip-1")
	svc := NewMigrationService(configs, testLogger(t))

	plan, err := svc.Prepare("vip-1", "F5")
	require.NoError(t, err)

	id, err := svc.Execute("vip-1", plan.MigratedConfig, "F5", "admin")
	require.NoError(t, err)
	assert.Equal(t, "vip-1", id)

	migrated, err := configs.Get("vip-1")
	require.NoError(t, err)
	assert.Equal(t, "F5", migrated.LBType)
	assert.Equal(t, "DEV", migrated.Environment)
	assert.Equal(t, "LADC", migrated.Datacenter)
	assert.Equal(t, "admin", migrated.UpdatedBy)
	assert.Equal(t, "user1", migrated.CreatedBy)
}

func TestMigrationExecuteRejectsNilConfig(t *testing.T) {
	t.Parallel()

	svc := NewMigrationService(repository.NewInMemoryConfigRepository(), testLogger(t))
	_, err := svc.Execute("vip-1", nil, "F5", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrated configuration cannot be nil")
}

func TestCheckCompatibilityBasicFeatures(t *testing.T) {
	t.Parallel()

	svc := NewMigrationService(repository.NewInMemoryConfigRepository(), testLogger(t))
	result := svc.CheckCompatibility("NGINX", "AVI", []string{"basic_http", "basic_https"})

	assert.Equal(t, []string{"basic_http", "basic_https"}, result.CompatibleFeatures)
	assert.Empty(t, result.IncompatibleFeatures)
	assert.Empty(t, result.Warnings)
}

func TestCheckCompatibilityPersistencePaths(t *testing.T) {
	t.Parallel()

	svc := NewMigrationService(repository.NewInMemoryConfigRepository(), testLogger(t))

	result := svc.CheckCompatibility("NGINX", "F5", []string{"cookie_persistence"})
	assert.Equal(t, []string{"cookie_persistence"}, result.CompatibleFeatures)

	result = svc.CheckCompatibility("F5", "AVI", []string{"source_ip_persistence"})
	assert.Equal(t, []string{"source_ip_persistence"}, result.CompatibleFeatures)

	result = svc.CheckCompatibility("AVI", "NGINX", []string{"cookie_persistence"})
	assert.Equal(t, []string{"cookie_persistence"}, result.IncompatibleFeatures)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "Feature cookie_persistence is not compatible between AVI and NGINX", result.Warnings[0])
}

func TestCheckCompatibilityMTLS(t *testing.T) {
	t.Parallel()

	svc := NewMigrationService(repository.NewInMemoryConfigRepository(), testLogger(t))

	result := svc.CheckCompatibility("NGINX", "F5", []string{"mtls"})
	assert.Equal(t, []string{"mtls"}, result.CompatibleFeatures)
	assert.Empty(t, result.Warnings)

	result = svc.CheckCompatibility("F5", "NGINX", []string{"mtls"})
	assert.Empty(t, result.CompatibleFeatures)
	assert.Empty(t, result.IncompatibleFeatures)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "Feature mtls may have limited support in NGINX", result.Warnings[0])
}

func TestCheckCompatibilityUnknownFeature(t *testing.T) {
	t.Parallel()

	svc := NewMigrationService(repository.NewInMemoryConfigRepository(), testLogger(t))
	result := svc.CheckCompatibility("NGINX", "F5", []string{"waf"})

	assert.Equal(t, []string{"waf"}, result.IncompatibleFeatures)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "Unknown feature waf", result.Warnings[0])
}
