package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/middleware"
	"github.com/dpaschgit/lbaasv1/internal/schema"
	"github.com/dpaschgit/lbaasv1/internal/service"
	"github.com/dpaschgit/lbaasv1/internal/translator"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// MigrationHandler implements the load balancer migration endpoints.
type MigrationHandler struct {
	migration *service.MigrationService
	logger    *logger.Logger
}

// NewMigrationHandler creates a new migration handler.
func NewMigrationHandler(migration *service.MigrationService, log *logger.Logger) *MigrationHandler {
	return &MigrationHandler{migration: migration, logger: log}
}

type migrationPrepareRequest struct {
	TargetLBType string `json:"target_lb_type"`
}

type compatibilityRequest struct {
	SourceLBType string   `json:"source_lb_type"`
	TargetLBType string   `json:"target_lb_type"`
	Features     []string `json:"features"`
}

type migrationExecuteRequest struct {
	VIPID          string                 `json:"vip_id"`
	MigratedConfig *schema.StandardConfig `json:"migrated_config"`
	TargetLBType   string                 `json:"target_lb_type"`
}

// LBTypes handles GET /migration/lb-types.
func (h *MigrationHandler) LBTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, translator.SupportedTypes())
}

// Prepare handles POST /migration/prepare/{vip_id}.
func (h *MigrationHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	var req migrationPrepareRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.TargetLBType == "" {
		respondError(w, apperrors.NewError(apperrors.ErrCodeInvalidRequest, "api", "target_lb_type is required"))
		return
	}

	plan, err := h.migration.Prepare(mux.Vars(r)["vip_id"], req.TargetLBType)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// CheckCompatibility handles POST /migration/compatibility-check.
func (h *MigrationHandler) CheckCompatibility(w http.ResponseWriter, r *http.Request) {
	var req compatibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	result := h.migration.CheckCompatibility(req.SourceLBType, req.TargetLBType, req.Features)
	respondJSON(w, http.StatusOK, result)
}

// Execute handles POST /migration/execute.
func (h *MigrationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req migrationExecuteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	configID, err := h.migration.Execute(req.VIPID, req.MigratedConfig, req.TargetLBType, user.Username)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"config_id": configID})
}
