package httpgin

import (
	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/kirinyoku/nft-tix/internal/txn"
)

type ShareRequest struct {
	Accounts []string `json:"accounts" binding:"required,min=1,dive,required"`
}

type ApproveRequest struct {
	// AccountID defaults to the market contract.
	AccountID string `json:"account_id"`
	Msg       string `json:"msg"`
}

type CreateTemplateRequest struct {
	TemplateID   string `json:"template_id" binding:"required"`
	TotalTickets uint64 `json:"total_tickets" binding:"required,gt=0"`
	PriceNEAR    string `json:"price_near" binding:"required"`
}

type RegisterUserRequest struct {
	AccountID string `json:"account_id" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CallResponse struct {
	TokenID domain.TokenID   `json:"token_id,omitempty"`
	Call    txn.FunctionCall `json:"call"`
}
