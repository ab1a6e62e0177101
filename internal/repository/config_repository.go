package repository

import (
	"sync"
	"time"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/schema"
)

// StoredConfig wraps a standard configuration with its placement and audit
// trail. Persisting the IR allows later re-translation for promotion and
// migration without rebuilding from the original intake.
type StoredConfig struct {
	VIPID       string                 `json:"vip_id"`
	Config      *schema.StandardConfig `json:"standard_config"`
	Environment string                 `json:"environment"`
	Datacenter  string                 `json:"datacenter"`
	LBType      string                 `json:"lb_type"`
	CreatedAt   time.Time              `json:"created_at"`
	CreatedBy   string                 `json:"created_by"`
	LastUpdated time.Time              `json:"last_updated"`
	UpdatedBy   string                 `json:"updated_by"`
}

// ConfigRepository stores standard configurations keyed by VIP id with
// create-or-update semantics.
type ConfigRepository interface {
	Store(vipID string, cfg *schema.StandardConfig, environment, datacenter, lbType, user string) (*StoredConfig, error)
	Get(vipID string) (*StoredConfig, error)
	ListByEnvironment(environment string) ([]*StoredConfig, error)
	ListByDatacenter(datacenter string) ([]*StoredConfig, error)
	ListByLBType(lbType string) ([]*StoredConfig, error)
	Delete(vipID string) error
}

// InMemoryConfigRepository implements ConfigRepository using in-memory
// storage.
type InMemoryConfigRepository struct {
	mu      sync.RWMutex
	configs map[string]*StoredConfig
}

// NewInMemoryConfigRepository creates a new in-memory configuration
// repository.
func NewInMemoryConfigRepository() *InMemoryConfigRepository {
	return &InMemoryConfigRepository{configs: make(map[string]*StoredConfig)}
}

// Store inserts or updates the configuration for a VIP. On update the
// creation audit fields are preserved.
func (r *InMemoryConfigRepository) Store(vipID string, cfg *schema.StandardConfig, environment, datacenter, lbType, user string) (*StoredConfig, error) {
	if vipID == "" {
		return nil, apperrors.NewError(apperrors.ErrCodeInvalidRequest, "repository", "VIP ID cannot be empty")
	}
	if cfg == nil {
		return nil, apperrors.NewError(apperrors.ErrCodeInvalidRequest, "repository", "configuration cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.configs[vipID]; ok {
		existing.Config = cfg
		existing.Environment = environment
		existing.Datacenter = datacenter
		existing.LBType = lbType
		existing.LastUpdated = now
		existing.UpdatedBy = user
		return existing, nil
	}

	stored := &StoredConfig{
		VIPID:       vipID,
		Config:      cfg,
		Environment: environment,
		Datacenter:  datacenter,
		LBType:      lbType,
		CreatedAt:   now,
		CreatedBy:   user,
		LastUpdated: now,
		UpdatedBy:   user,
	}
	r.configs[vipID] = stored
	return stored, nil
}

// Get returns the stored configuration for a VIP id.
func (r *InMemoryConfigRepository) Get(vipID string) (*StoredConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.configs[vipID]
	if !exists {
		return nil, apperrors.NewNotFoundError("Configuration", vipID)
	}
	return stored, nil
}

// ListByEnvironment returns all configurations for an environment.
func (r *InMemoryConfigRepository) ListByEnvironment(environment string) ([]*StoredConfig, error) {
	return r.list(func(c *StoredConfig) bool { return c.Environment == environment })
}

// ListByDatacenter returns all configurations for a datacenter.
func (r *InMemoryConfigRepository) ListByDatacenter(datacenter string) ([]*StoredConfig, error) {
	return r.list(func(c *StoredConfig) bool { return c.Datacenter == datacenter })
}

// ListByLBType returns all configurations for a load balancer type.
func (r *InMemoryConfigRepository) ListByLBType(lbType string) ([]*StoredConfig, error) {
	return r.list(func(c *StoredConfig) bool { return c.LBType == lbType })
}

func (r *InMemoryConfigRepository) list(match func(*StoredConfig) bool) ([]*StoredConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*StoredConfig
	for _, stored := range r.configs {
		if match(stored) {
			results = append(results, stored)
		}
	}
	return results, nil
}

// Delete removes the configuration for a VIP id.
func (r *InMemoryConfigRepository) Delete(vipID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[vipID]; !exists {
		return apperrors.NewNotFoundError("Configuration", vipID)
	}
	delete(r.configs, vipID)
	return nil
}
