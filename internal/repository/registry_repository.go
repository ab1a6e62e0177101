package repository

import (
	"sync"

	"github.com/dpaschgit/lbaasv1/internal/domain"
	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
)

// RegistryRepository stores registered load balancer appliances keyed by
// id.
type RegistryRepository interface {
	Save(lb *domain.LoadBalancer) error
	GetByID(id string) (*domain.LoadBalancer, error)
	List(filter domain.LBFilter) ([]*domain.LoadBalancer, error)
	Delete(id string) error
}

// InMemoryRegistryRepository implements RegistryRepository using in-memory
// storage.
type InMemoryRegistryRepository struct {
	mu  sync.RWMutex
	lbs map[string]*domain.LoadBalancer
}

// NewInMemoryRegistryRepository creates a new in-memory registry
// repository.
func NewInMemoryRegistryRepository() *InMemoryRegistryRepository {
	return &InMemoryRegistryRepository{lbs: make(map[string]*domain.LoadBalancer)}
}

// Save persists a load balancer entry, inserting or replacing by id.
func (r *InMemoryRegistryRepository) Save(lb *domain.LoadBalancer) error {
	if lb == nil {
		return apperrors.NewError(apperrors.ErrCodeInvalidRequest, "repository", "load balancer cannot be nil")
	}
	if lb.ID == "" {
		return apperrors.NewError(apperrors.ErrCodeInvalidRequest, "repository", "load balancer ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lbs[lb.ID] = lb
	return nil
}

// GetByID returns the load balancer with the given id.
func (r *InMemoryRegistryRepository) GetByID(id string) (*domain.LoadBalancer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lb, exists := r.lbs[id]
	if !exists {
		return nil, apperrors.NewNotFoundError("Load balancer", id)
	}
	return lb, nil
}

// List returns registered load balancers matching the filter.
func (r *InMemoryRegistryRepository) List(filter domain.LBFilter) ([]*domain.LoadBalancer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*domain.LoadBalancer, 0, len(r.lbs))
	for _, lb := range r.lbs {
		if filter.Matches(lb) {
			results = append(results, lb)
		}
	}
	return results, nil
}

// Delete removes the load balancer with the given id.
func (r *InMemoryRegistryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.lbs[id]; !exists {
		return apperrors.NewNotFoundError("Load balancer", id)
	}
	delete(r.lbs, id)
	return nil
}
