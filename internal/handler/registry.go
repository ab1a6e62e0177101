package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dpaschgit/lbaasv1/internal/domain"
	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/middleware"
	"github.com/dpaschgit/lbaasv1/internal/repository"
	"github.com/dpaschgit/lbaasv1/internal/translator"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// RegistryHandler implements the load balancer registry endpoints. Reads
// are open to any authenticated user; mutations are admin-only.
type RegistryHandler struct {
	registry repository.RegistryRepository
	logger   *logger.Logger
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(registry repository.RegistryRepository, log *logger.Logger) *RegistryHandler {
	return &RegistryHandler{registry: registry, logger: log}
}

func requireAdmin(r *http.Request) error {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok || user.Role != domain.RoleAdmin {
		return apperrors.NewAuthorizationError("Administrator role required")
	}
	return nil
}

// List handles GET /lbaas/api/lb-registry with optional lb_type,
// datacenter, environment and status filters.
func (h *RegistryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lbs, err := h.registry.List(domain.LBFilter{
		LBType:      q.Get("lb_type"),
		Datacenter:  q.Get("datacenter"),
		Environment: q.Get("environment"),
		Status:      q.Get("status"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lbs)
}

// Get handles GET /lbaas/api/lb-registry/{lb_id}.
func (h *RegistryHandler) Get(w http.ResponseWriter, r *http.Request) {
	lb, err := h.registry.GetByID(mux.Vars(r)["lb_id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lb)
}

// Create handles POST /lbaas/api/lb-registry.
func (h *RegistryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		respondError(w, err)
		return
	}

	var lb domain.LoadBalancer
	if err := decodeJSON(r, &lb); err != nil {
		respondError(w, err)
		return
	}
	if lb.Name == "" || lb.LBType == "" {
		respondError(w, apperrors.NewError(apperrors.ErrCodeInvalidRequest, "api", "name and lb_type are required"))
		return
	}
	if _, err := translator.ForType(lb.LBType); err != nil {
		respondError(w, err)
		return
	}

	if lb.ID == "" {
		lb.ID = uuid.NewString()
	}
	if lb.Status == "" {
		lb.Status = domain.LBStatusActive
	}
	now := time.Now().UTC()
	lb.CreatedAt = now
	lb.UpdatedAt = now

	if err := h.registry.Save(&lb); err != nil {
		respondError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"lb_id":   lb.ID,
		"lb_type": lb.LBType,
		"name":    lb.Name,
	}).Info("load balancer registered")
	respondJSON(w, http.StatusCreated, &lb)
}

// Update handles PUT /lbaas/api/lb-registry/{lb_id}.
func (h *RegistryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		respondError(w, err)
		return
	}

	existing, err := h.registry.GetByID(mux.Vars(r)["lb_id"])
	if err != nil {
		respondError(w, err)
		return
	}

	var lb domain.LoadBalancer
	if err := decodeJSON(r, &lb); err != nil {
		respondError(w, err)
		return
	}

	lb.ID = existing.ID
	lb.CreatedAt = existing.CreatedAt
	lb.UpdatedAt = time.Now().UTC()
	if err := h.registry.Save(&lb); err != nil {
		respondError(w, err)
		return
	}

	h.logger.WithField("lb_id", lb.ID).Info("load balancer updated")
	respondJSON(w, http.StatusOK, &lb)
}

// Delete handles DELETE /lbaas/api/lb-registry/{lb_id}.
func (h *RegistryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		respondError(w, err)
		return
	}

	lbID := mux.Vars(r)["lb_id"]
	if err := h.registry.Delete(lbID); err != nil {
		respondError(w, err)
		return
	}

	h.logger.WithField("lb_id", lbID).Info("load balancer deregistered")
	w.WriteHeader(http.StatusNoContent)
}

// Types handles GET /lbaas/api/lb-registry/types.
func (h *RegistryHandler) Types(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, translator.SupportedTypes())
}

// Datacenters handles GET /lbaas/api/lb-registry/datacenters.
func (h *RegistryHandler) Datacenters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.Datacenters)
}

// Environments handles GET /lbaas/api/lb-registry/environments.
func (h *RegistryHandler) Environments(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.Environments)
}
