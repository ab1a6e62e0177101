// Package repository provides the in-memory key-value stores backing the
// API. Entries are keyed by identifier with no ordering guarantee; a
// document database can be slotted in behind the same interfaces.
package repository

import (
	"sync"

	"github.com/dpaschgit/lbaasv1/internal/domain"
	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
)

// VIPRepository stores VIP records keyed by id.
type VIPRepository interface {
	Save(vip *domain.VIP) error
	GetByID(id string) (*domain.VIP, error)
	List(environment, owner string) ([]*domain.VIP, error)
	Delete(id string) error
}

// InMemoryVIPRepository implements VIPRepository using in-memory storage.
type InMemoryVIPRepository struct {
	mu   sync.RWMutex
	vips map[string]*domain.VIP
}

// NewInMemoryVIPRepository creates a new in-memory VIP repository.
func NewInMemoryVIPRepository() *InMemoryVIPRepository {
	return &InMemoryVIPRepository{vips: make(map[string]*domain.VIP)}
}

// Save persists a VIP record, inserting or replacing by id.
func (r *InMemoryVIPRepository) Save(vip *domain.VIP) error {
	if vip == nil {
		return apperrors.NewError(apperrors.ErrCodeInvalidRequest, "repository", "VIP cannot be nil")
	}
	if vip.ID == "" {
		return apperrors.NewError(apperrors.ErrCodeInvalidRequest, "repository", "VIP ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.vips[vip.ID] = vip
	return nil
}

// GetByID returns the VIP with the given id.
func (r *InMemoryVIPRepository) GetByID(id string) (*domain.VIP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vip, exists := r.vips[id]
	if !exists {
		return nil, apperrors.NewNotFoundError("VIP", id)
	}
	return vip, nil
}

// List returns VIP records, optionally filtered by environment and owner.
func (r *InMemoryVIPRepository) List(environment, owner string) ([]*domain.VIP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*domain.VIP, 0, len(r.vips))
	for _, vip := range r.vips {
		if environment != "" && vip.Environment != environment {
			continue
		}
		if owner != "" && vip.Owner != owner {
			continue
		}
		results = append(results, vip)
	}
	return results, nil
}

// Delete removes the VIP with the given id.
func (r *InMemoryVIPRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vips[id]; !exists {
		return apperrors.NewNotFoundError("VIP", id)
	}
	delete(r.vips, id)
	return nil
}
