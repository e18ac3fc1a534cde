package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gem-platform/wallet-ledger/internal/api/service"
	"github.com/gem-platform/wallet-ledger/internal/domain/bonus"
)

// AdminHandler handles administrative bonus policy management
type AdminHandler struct {
	bonusService service.BonusService
	logger       *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(logger *slog.Logger, bonusService service.BonusService) *AdminHandler {
	return &AdminHandler{
		bonusService: bonusService,
		logger:       logger,
	}
}

// ListPolicies returns all bonus policies with their claim counts
func (h *AdminHandler) ListPolicies(c *gin.Context) {
	stats, err := h.bonusService.ListPolicies(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list bonus policies", "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]PolicyResponse, 0, len(stats))
	for _, s := range stats {
		p := mapPolicyToResponse(&s.Policy)
		p.ClaimCount = s.ClaimCount
		response = append(response, p)
	}
	RespondOK(c, response)
}

// UpdatePolicy applies a partial update to one bonus policy
func (h *AdminHandler) UpdatePolicy(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondBadRequest(c, "Invalid policy ID")
		return
	}

	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	update := bonus.PolicyUpdate{
		Amount:          req.Amount,
		CooldownSeconds: req.CooldownSeconds,
		MaxClaims:       req.MaxClaims,
		IsActive:        req.IsActive,
	}
	if update.IsEmpty() {
		RespondBadRequest(c, "Update must change at least one field")
		return
	}

	policy, err := h.bonusService.UpdatePolicy(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, bonus.ErrPolicyNotFound{}) {
			RespondNotFound(c, "Bonus policy not found")
			return
		}
		h.logger.Error("Failed to update bonus policy", "policy_id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapPolicyToResponse(policy))
}

// mapPolicyToResponse maps a bonus policy to its response DTO
func mapPolicyToResponse(p *bonus.Policy) PolicyResponse {
	return PolicyResponse{
		ID:              p.ID,
		Code:            p.Code,
		Amount:          p.Amount,
		Currency:        p.CurrencyCode,
		CooldownSeconds: p.CooldownSeconds,
		MaxClaims:       p.MaxClaims,
		Description:     p.Description,
		IsActive:        p.IsActive,
	}
}
