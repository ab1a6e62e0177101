package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dpaschgit/lbaasv1/internal/domain"
	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/integrations"
	"github.com/dpaschgit/lbaasv1/internal/middleware"
	"github.com/dpaschgit/lbaasv1/internal/repository"
	"github.com/dpaschgit/lbaasv1/internal/service"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// VIPHandler implements the VIP lifecycle endpoints. Mutations require an
// approved change ticket; auditors get read-only access and users only see
// or touch their own records.
type VIPHandler struct {
	vips       repository.VIPRepository
	deployment *service.DeploymentService
	cmdb       *integrations.CMDBClient
	ipam       *integrations.IPAMClient
	logger     *logger.Logger
}

// NewVIPHandler creates a new VIP handler.
func NewVIPHandler(vips repository.VIPRepository, deployment *service.DeploymentService, cmdb *integrations.CMDBClient, ipam *integrations.IPAMClient, log *logger.Logger) *VIPHandler {
	return &VIPHandler{vips: vips, deployment: deployment, cmdb: cmdb, ipam: ipam, logger: log}
}

type vipCreateRequest struct {
	domain.VIP
	IncidentID string `json:"servicenow_incident_id,omitempty"`
}

type vipUpdateRequest struct {
	domain.VIPUpdate
	IncidentID string `json:"servicenow_incident_id,omitempty"`
}

type vipDeleteRequest struct {
	IncidentID string `json:"servicenow_incident_id,omitempty"`
}

type deployRequest struct {
	service.Placement
}

// validateIncident confirms an approved change ticket before a mutation.
func (h *VIPHandler) validateIncident(r *http.Request, incidentID, operation string) error {
	if incidentID == "" {
		return apperrors.NewError(
			apperrors.ErrCodeInvalidRequest,
			"api",
			"ServiceNow Incident ID is required for "+operation+" operation",
		)
	}
	result, err := h.cmdb.ValidateIncident(r.Context(), incidentID)
	if err != nil {
		return err
	}
	if !result.Valid {
		reason := result.Reason
		if reason == "" {
			reason = "Incident validation failed or incident not approved"
		}
		return apperrors.NewError(apperrors.ErrCodeIncidentRejected, "api", reason).
			WithMetadata("incident_id", incidentID)
	}
	return nil
}

// Create handles POST /api/v1/vips.
func (h *VIPHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	if user.Role == domain.RoleAuditor {
		respondError(w, apperrors.NewAuthorizationError("Auditors cannot create VIPs"))
		return
	}

	var req vipCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.FQDN == "" || len(req.Pool) == 0 {
		respondError(w, apperrors.NewError(apperrors.ErrCodeInvalidRequest, "api", "vip_fqdn and a non-empty pool are required"))
		return
	}

	vip := req.VIP
	vip.ID = uuid.NewString()
	vip.Owner = user.Username
	now := time.Now().UTC()
	vip.CreatedAt = now
	vip.UpdatedAt = now

	// Allocate an address when the request leaves it open. IPAM being down
	// is not fatal; the address can be assigned later via update.
	if vip.IPAddress == "" && h.ipam != nil {
		alloc, err := h.ipam.RequestIP(r.Context(), vip.Datacenter+"-subnet")
		if err != nil {
			h.logger.WithError(err).Warn("IPAM allocation failed, VIP created without address")
		} else {
			vip.IPAddress = alloc.IPAddress
			if err := h.ipam.ReserveIP(r.Context(), alloc.IPAddress, vip.FQDN, alloc.SubnetID); err != nil {
				h.logger.WithError(err).Warn("IPAM reservation failed")
			}
		}
	}

	if err := h.vips.Save(&vip); err != nil {
		respondError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"vip_id": vip.ID,
		"fqdn":   vip.FQDN,
		"owner":  vip.Owner,
	}).Info("VIP created")
	respondJSON(w, http.StatusCreated, &vip)
}

// List handles GET /api/v1/vips with optional environment and owner
// filters. Plain users are always scoped to their own records unless they
// name an owner explicitly.
func (h *VIPHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	environment := r.URL.Query().Get("environment")
	owner := r.URL.Query().Get("owner")
	if user.Role == domain.RoleUser && owner == "" {
		owner = user.Username
	}

	vips, err := h.vips.List(environment, owner)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vips)
}

// Get handles GET /api/v1/vips/{vip_id}.
func (h *VIPHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	vip, err := h.vips.GetByID(mux.Vars(r)["vip_id"])
	if err != nil {
		respondError(w, err)
		return
	}
	if user.Role == domain.RoleUser && vip.Owner != user.Username {
		respondError(w, apperrors.NewAuthorizationError("Not authorized to access this VIP"))
		return
	}
	respondJSON(w, http.StatusOK, vip)
}

// Update handles PUT /api/v1/vips/{vip_id}.
func (h *VIPHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	if user.Role == domain.RoleAuditor {
		respondError(w, apperrors.NewAuthorizationError("Auditors cannot update VIPs"))
		return
	}

	var req vipUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validateIncident(r, req.IncidentID, "update"); err != nil {
		respondError(w, err)
		return
	}

	vip, err := h.vips.GetByID(mux.Vars(r)["vip_id"])
	if err != nil {
		respondError(w, err)
		return
	}
	if !user.CanModify(vip) {
		respondError(w, apperrors.NewAuthorizationError("Not authorized to modify this VIP"))
		return
	}

	vip.Apply(req.VIPUpdate)
	if err := h.vips.Save(vip); err != nil {
		respondError(w, err)
		return
	}

	h.logger.WithField("vip_id", vip.ID).Info("VIP updated")
	respondJSON(w, http.StatusOK, vip)
}

// Delete handles DELETE /api/v1/vips/{vip_id}.
func (h *VIPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	if user.Role == domain.RoleAuditor {
		respondError(w, apperrors.NewAuthorizationError("Auditors cannot delete VIPs"))
		return
	}

	var req vipDeleteRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
	}
	if err := h.validateIncident(r, req.IncidentID, "delete"); err != nil {
		respondError(w, err)
		return
	}

	vipID := mux.Vars(r)["vip_id"]
	vip, err := h.vips.GetByID(vipID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !user.CanModify(vip) {
		respondError(w, apperrors.NewAuthorizationError("Not authorized to modify this VIP"))
		return
	}

	if err := h.vips.Delete(vipID); err != nil {
		respondError(w, err)
		return
	}

	if vip.IPAddress != "" && h.ipam != nil {
		if err := h.ipam.ReleaseIP(r.Context(), vip.IPAddress); err != nil {
			h.logger.WithError(err).Warn("IPAM release failed")
		}
	}

	h.logger.WithField("vip_id", vipID).Info("VIP deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Deploy handles POST /api/v1/vips/{vip_id}/deploy: it translates the VIP
// for the requested placement and writes the vendor artifact. Failures in
// the generation step come back as a deployment result, not an HTTP error.
func (h *VIPHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	if user.Role == domain.RoleAuditor {
		respondError(w, apperrors.NewAuthorizationError("Auditors cannot deploy VIPs"))
		return
	}

	var req deployRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	vip, err := h.vips.GetByID(mux.Vars(r)["vip_id"])
	if err != nil {
		respondError(w, err)
		return
	}
	if !user.CanModify(vip) {
		respondError(w, apperrors.NewAuthorizationError("Not authorized to modify this VIP"))
		return
	}

	result, err := h.deployment.Deploy(vip, req.Placement)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
