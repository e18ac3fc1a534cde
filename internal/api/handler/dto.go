package handler

// CreditRequest represents a request to credit a wallet balance
type CreditRequest struct {
	Currency       string            `json:"currency" binding:"required"`
	Amount         int64             `json:"amount" binding:"required,gt=0"`
	Reference      string            `json:"reference" binding:"required"`
	Memo           string            `json:"memo,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DebitRequest represents a request to debit a wallet balance
type DebitRequest struct {
	Currency       string `json:"currency" binding:"required"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	Reference      string `json:"reference" binding:"required"`
	Memo           string `json:"memo,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// WithdrawRequest represents a request to withdraw from a wallet balance.
// The reference is fixed by the server; callers only choose what and how much.
type WithdrawRequest struct {
	Currency       string `json:"currency" binding:"required"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	Memo           string `json:"memo,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TransferRequest represents a request to move funds to another user
type TransferRequest struct {
	ToUserID       string `json:"to_user_id" binding:"required,uuid"`
	Currency       string `json:"currency" binding:"required"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	Reference      string `json:"reference,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ClaimRequest represents a request to claim a bonus policy
type ClaimRequest struct {
	PolicyCode string `json:"policy_code" binding:"required"`
}

// UpdatePolicyRequest represents a partial administrative policy update
type UpdatePolicyRequest struct {
	Amount          *int64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
	CooldownSeconds *int64 `json:"cooldown_seconds,omitempty" binding:"omitempty,gt=0"`
	MaxClaims       *int   `json:"max_claims,omitempty" binding:"omitempty,gt=0"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

// TransactionResponse represents a journal record in API responses
type TransactionResponse struct {
	ID             int64             `json:"id"`
	UserID         string            `json:"user_id"`
	Currency       string            `json:"currency"`
	Type           string            `json:"type"`
	Amount         int64             `json:"amount"`
	Reference      string            `json:"reference"`
	Memo           string            `json:"memo,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      string            `json:"created_at"`
}

// BalanceResponse represents one currency balance in API responses
type BalanceResponse struct {
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// TransferResponse pairs the two journal records produced by a transfer
type TransferResponse struct {
	Debit  TransactionResponse `json:"debit"`
	Credit TransactionResponse `json:"credit"`
}

// ClaimResponse represents a bonus claim outcome in API responses
type ClaimResponse struct {
	Granted         bool                 `json:"granted"`
	Reason          string               `json:"reason,omitempty"`
	NextAvailableAt string               `json:"next_available_at,omitempty"`
	Transaction     *TransactionResponse `json:"transaction,omitempty"`
	Amount          int64                `json:"amount,omitempty"`
	Currency        string               `json:"currency,omitempty"`
}

// PolicyResponse represents a bonus policy in API responses
type PolicyResponse struct {
	ID              int64  `json:"id"`
	Code            string `json:"code"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	CooldownSeconds *int64 `json:"cooldown_seconds"`
	MaxClaims       *int   `json:"max_claims"`
	Description     string `json:"description,omitempty"`
	IsActive        bool   `json:"is_active"`
	ClaimCount      int64  `json:"claim_count,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}
