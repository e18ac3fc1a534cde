package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gem-platform/wallet-ledger/internal/api/middleware"
	"github.com/gem-platform/wallet-ledger/internal/api/service"
	"github.com/gem-platform/wallet-ledger/internal/domain/bonus"
)

// BonusHandler handles HTTP requests for bonus claim operations
type BonusHandler struct {
	bonusService service.BonusService
	logger       *slog.Logger
}

// NewBonusHandler creates a new bonus handler
func NewBonusHandler(logger *slog.Logger, bonusService service.BonusService) *BonusHandler {
	return &BonusHandler{
		bonusService: bonusService,
		logger:       logger,
	}
}

// Claim attempts to claim the named policy for the caller. Denials are a
// normal outcome and reported with 200, not an error status.
func (h *BonusHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	result, err := h.bonusService.Claim(c.Request.Context(), userID, req.PolicyCode, middleware.GetCorrelationID(c))
	if err != nil {
		h.logger.Error("Claim evaluation failed",
			"user_id", userID,
			"policy_code", req.PolicyCode,
			"error", err,
		)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapClaimResultToResponse(result))
}

// DailyVisit triggers the daily visit bonus as a best-effort side effect of
// the caller showing up; it always answers 200
func (h *BonusHandler) DailyVisit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	result := h.bonusService.GrantDailyVisitBonus(c.Request.Context(), userID, middleware.GetCorrelationID(c))
	RespondWithData(c, http.StatusOK, mapClaimResultToResponse(result))
}

// mapClaimResultToResponse maps a claim outcome to its response DTO
func mapClaimResultToResponse(result *bonus.ClaimResult) ClaimResponse {
	response := ClaimResponse{
		Granted:  result.Granted,
		Reason:   string(result.Reason),
		Amount:   result.Amount,
		Currency: result.Currency,
	}
	if result.NextAvailableAt != nil {
		response.NextAvailableAt = result.NextAvailableAt.Format(time.RFC3339)
	}
	if result.Transaction != nil {
		tx := mapRecordToResponse(result.Transaction)
		response.Transaction = &tx
	}
	return response
}
