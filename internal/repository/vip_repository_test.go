package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaschgit/lbaasv1/internal/domain"
	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
)

func sampleVIP(id, env, owner string) *domain.VIP {
	return &domain.VIP{
		ID:          id,
		FQDN:        id + ".example.com",
		Environment: env,
		Datacenter:  "LADC",
		Owner:       owner,
		Port:        80,
		Protocol:    "HTTP",
		Pool:        []domain.PoolMemberSpec{{IP: "192.168.1.10", Port: 8080}},
	}
}

func TestVIPRepositorySaveAndGet(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryVIPRepository()
	vip := sampleVIP("vip-1", "DEV", "user1")
	require.NoError(t, repo.Save(vip))

	got, err := repo.GetByID("vip-1")
	require.NoError(t, err)
	assert.Equal(t, vip, got)

	// Save replaces by id.
	replacement := sampleVIP("vip-1", "UAT", "user1")
	require.NoError(t, repo.Save(replacement))
	got, err = repo.GetByID("vip-1")
	require.NoError(t, err)
	assert.Equal(t, "UAT", got.Environment)
}

func TestVIPRepositorySaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryVIPRepository()
	assert.Error(t, repo.Save(nil))
	assert.Error(t, repo.Save(&domain.VIP{}))
}

func TestVIPRepositoryGetNotFound(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryVIPRepository()
	_, err := repo.GetByID("missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "VIP with ID 'missing' not found")
}

func TestVIPRepositoryListFilters(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryVIPRepository()
	require.NoError(t, repo.Save(sampleVIP("vip-1", "DEV", "user1")))
	require.NoError(t, repo.Save(sampleVIP("vip-2", "DEV", "user2")))
	require.NoError(t, repo.Save(sampleVIP("vip-3", "PROD", "user1")))

	all, err := repo.List("", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dev, err := repo.List("DEV", "")
	require.NoError(t, err)
	assert.Len(t, dev, 2)

	owned, err := repo.List("", "user1")
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	both, err := repo.List("DEV", "user1")
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "vip-1", both[0].ID)
}

func TestVIPRepositoryDelete(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryVIPRepository()
	require.NoError(t, repo.Save(sampleVIP("vip-1", "DEV", "user1")))
	require.NoError(t, repo.Delete("vip-1"))

	_, err := repo.GetByID("vip-1")
	assert.Error(t, err)

	err = repo.Delete("vip-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetErrorCode(err))
}
