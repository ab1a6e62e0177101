package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dpaschgit/lbaasv1/internal/domain"
	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/middleware"
	"github.com/dpaschgit/lbaasv1/internal/schema"
	"github.com/dpaschgit/lbaasv1/internal/service"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// PromotionHandler implements the environment promotion endpoints.
type PromotionHandler struct {
	promotion *service.PromotionService
	logger    *logger.Logger
}

// NewPromotionHandler creates a new promotion handler.
func NewPromotionHandler(promotion *service.PromotionService, log *logger.Logger) *PromotionHandler {
	return &PromotionHandler{promotion: promotion, logger: log}
}

type promotionPrepareRequest struct {
	TargetEnvironment string `json:"target_environment"`
	TargetDatacenter  string `json:"target_datacenter"`
	TargetLBType      string `json:"target_lb_type"`
}

type promotionExecuteRequest struct {
	VIPID             string                 `json:"vip_id"`
	PromotedConfig    *schema.StandardConfig `json:"promoted_config"`
	TargetEnvironment string                 `json:"target_environment"`
	TargetDatacenter  string                 `json:"target_datacenter"`
	TargetLBType      string                 `json:"target_lb_type"`
}

// Environments handles GET /promotion/environments.
func (h *PromotionHandler) Environments(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.Environments)
}

// Datacenters handles GET /promotion/datacenters/{environment}. Every
// environment is currently served from every datacenter.
func (h *PromotionHandler) Datacenters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.Datacenters)
}

// Prepare handles POST /promotion/prepare/{vip_id}.
func (h *PromotionHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	var req promotionPrepareRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.TargetEnvironment == "" || req.TargetDatacenter == "" || req.TargetLBType == "" {
		respondError(w, apperrors.NewError(apperrors.ErrCodeInvalidRequest, "api",
			"target_environment, target_datacenter and target_lb_type are required"))
		return
	}

	plan, err := h.promotion.Prepare(mux.Vars(r)["vip_id"], req.TargetEnvironment, req.TargetDatacenter, req.TargetLBType)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// Execute handles POST /promotion/execute.
func (h *PromotionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req promotionExecuteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	newVIPID, err := h.promotion.Execute(req.VIPID, req.PromotedConfig,
		req.TargetEnvironment, req.TargetDatacenter, req.TargetLBType, user.Username)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"config_id": newVIPID})
}
