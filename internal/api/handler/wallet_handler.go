package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gem-platform/wallet-ledger/internal/api/middleware"
	"github.com/gem-platform/wallet-ledger/internal/api/service"
	"github.com/gem-platform/wallet-ledger/internal/domain/currency"
	"github.com/gem-platform/wallet-ledger/internal/domain/wallet"
)

// WithdrawReference categorizes withdrawals in the journal
const WithdrawReference = "user_withdraw"

// WalletHandler handles HTTP requests for ledger operations
type WalletHandler struct {
	walletService service.WalletService
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, walletService service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// GetBalances returns the caller's balances, either all currencies or one
// requested currency (reported as zero when never funded)
func (h *WalletHandler) GetBalances(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if code := c.Query("currency"); code != "" {
		balance, err := h.walletService.GetBalance(c.Request.Context(), userID, code)
		if err != nil {
			h.respondLedgerError(c, err)
			return
		}
		RespondOK(c, []BalanceResponse{mapBalanceToResponse(balance)})
		return
	}

	balances, err := h.walletService.GetBalances(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get balances", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		response = append(response, mapBalanceToResponse(b))
	}
	RespondOK(c, response)
}

// GetHistory returns the caller's paginated journal history, newest first
func (h *WalletHandler) GetHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	records, total, err := h.walletService.GetHistory(c.Request.Context(), userID, c.Query("currency"), pagination.Page, pagination.PerPage)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	response := make([]TransactionResponse, 0, len(records))
	for _, r := range records {
		response = append(response, mapRecordToResponse(r))
	}
	RespondWithPaginatedData(c, 200, response, pagination.Page, pagination.PerPage, int(total))
}

// Credit adds funds to the caller's balance
func (h *WalletHandler) Credit(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.walletService.Credit(c.Request.Context(), service.CreditParams{
		UserID:         middleware.GetUserID(c),
		Currency:       req.Currency,
		Amount:         req.Amount,
		Reference:      req.Reference,
		Memo:           req.Memo,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, mapRecordToResponse(record))
}

// Debit removes funds from the caller's balance
func (h *WalletHandler) Debit(c *gin.Context) {
	var req DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.walletService.Debit(c.Request.Context(), service.DebitParams{
		UserID:         middleware.GetUserID(c),
		Currency:       req.Currency,
		Amount:         req.Amount,
		Reference:      req.Reference,
		Memo:           req.Memo,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, mapRecordToResponse(record))
}

// Withdraw debits the caller's balance with the fixed withdrawal reference
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.walletService.Debit(c.Request.Context(), service.DebitParams{
		UserID:         middleware.GetUserID(c),
		Currency:       req.Currency,
		Amount:         req.Amount,
		Reference:      WithdrawReference,
		Memo:           req.Memo,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, mapRecordToResponse(record))
}

// Transfer moves funds from the caller to another user
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		RespondBadRequest(c, "Invalid destination user ID")
		return
	}

	reference := req.Reference
	if reference == "" {
		reference = "transfer"
	}

	result, err := h.walletService.Transfer(c.Request.Context(), service.TransferParams{
		FromUserID:     middleware.GetUserID(c),
		ToUserID:       toUserID,
		Currency:       req.Currency,
		Amount:         req.Amount,
		Reference:      reference,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, TransferResponse{
		Debit:  mapRecordToResponse(result.DebitRecord),
		Credit: mapRecordToResponse(result.CreditRecord),
	})
}

// respondLedgerError maps ledger errors to HTTP responses. Rule violations
// on well-formed requests are 422; malformed input is 400.
func (h *WalletHandler) respondLedgerError(c *gin.Context, err error) {
	var unknownCurrency currency.ErrUnknownCurrency
	var limitExceeded wallet.ErrDailyLimitExceeded

	switch {
	case errors.As(err, &unknownCurrency):
		RespondBadRequest(c, "Unknown currency: "+unknownCurrency.Code)
	case errors.Is(err, wallet.ErrInvalidAmount):
		RespondBadRequest(c, "Amount must be positive")
	case errors.Is(err, wallet.ErrSelfTransfer):
		RespondBadRequest(c, "Cannot transfer to yourself")
	case errors.Is(err, wallet.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Balance cannot cover the requested amount")
	case errors.As(err, &limitExceeded):
		RespondUnprocessable(c, "DAILY_LIMIT_EXCEEDED", "Daily credit limit reached for this currency")
	default:
		h.logger.Error("Ledger operation failed", "error", err)
		RespondInternalError(c)
	}
}

// mapRecordToResponse maps a journal record to its response DTO
func mapRecordToResponse(r *wallet.Record) TransactionResponse {
	return TransactionResponse{
		ID:             r.ID,
		UserID:         r.UserID.String(),
		Currency:       r.CurrencyCode,
		Type:           string(r.Type),
		Amount:         r.Amount,
		Reference:      r.Reference,
		Memo:           r.Memo,
		IdempotencyKey: r.IdempotencyKey,
		Metadata:       r.Metadata,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
}

// mapBalanceToResponse maps a balance to its response DTO
func mapBalanceToResponse(b *wallet.Balance) BalanceResponse {
	response := BalanceResponse{
		Currency: b.CurrencyCode,
		Amount:   b.Amount,
	}
	if !b.UpdatedAt.IsZero() {
		response.UpdatedAt = b.UpdatedAt.Format(time.RFC3339)
	}
	return response
}
