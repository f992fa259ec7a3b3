// Package txn prepares the contract calls the user's wallet signs. Nothing
// here talks to the network; the returned FunctionCall is handed to the
// client as is.
package txn

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/shopspring/decimal"
)

const yoctoExp = 24

var ErrInvalidArgument = errors.New("invalid argument")

// FunctionCall is one change-method call on a contract.
type FunctionCall struct {
	ReceiverID string         `json:"receiver_id"`
	MethodName string         `json:"method_name"`
	Args       map[string]any `json:"args"`
	// Gas in gas units, decimal string.
	Gas string `json:"gas"`
	// Deposit in yoctoNEAR, decimal string.
	Deposit string `json:"deposit"`
}

type Config struct {
	MarketContract string
	NFTContract    string
	SellerAccount  string

	MintGas     uint64
	TemplateGas uint64
	AccountsGas uint64
	ApproveGas  uint64

	// NEAR amounts as decimal strings.
	StorageDeposit  string
	TemplateDeposit string
	AccountsDeposit string
	ApproveDeposit  string
}

func DefaultConfig() Config {
	return Config{
		MintGas:         300_000_000_000_000,
		TemplateGas:     100_000_000_000_000,
		AccountsGas:     100_000_000_000_000,
		ApproveGas:      100_000_000_000_000,
		StorageDeposit:  "0.1",
		TemplateDeposit: "0.1",
		AccountsDeposit: "0.1",
		ApproveDeposit:  "0.01",
	}
}

type Builder struct {
	cfg Config
}

func NewBuilder(cfg Config) *Builder {
	def := DefaultConfig()

	if cfg.MintGas == 0 {
		cfg.MintGas = def.MintGas
	}
	if cfg.TemplateGas == 0 {
		cfg.TemplateGas = def.TemplateGas
	}
	if cfg.AccountsGas == 0 {
		cfg.AccountsGas = def.AccountsGas
	}
	if cfg.ApproveGas == 0 {
		cfg.ApproveGas = def.ApproveGas
	}
	if cfg.StorageDeposit == "" {
		cfg.StorageDeposit = def.StorageDeposit
	}
	if cfg.TemplateDeposit == "" {
		cfg.TemplateDeposit = def.TemplateDeposit
	}
	if cfg.AccountsDeposit == "" {
		cfg.AccountsDeposit = def.AccountsDeposit
	}
	if cfg.ApproveDeposit == "" {
		cfg.ApproveDeposit = def.ApproveDeposit
	}

	return &Builder{cfg: cfg}
}

// PayAndMint builds pay_and_mint_unsafe for a freshly generated token id.
// The attached deposit is the ticket price plus the storage reserve, which
// the market contract requires exactly.
func (b *Builder) PayAndMint(cat domain.Category, tokenID domain.TokenID) (FunctionCall, error) {
	const op = "txn.Builder.PayAndMint"

	if tokenID == "" {
		return FunctionCall{}, fmt.Errorf("%s: %w: empty token id", op, ErrInvalidArgument)
	}

	price, err := decimal.NewFromString(cat.PriceNEAR)
	if err != nil || price.IsNegative() {
		return FunctionCall{}, fmt.Errorf("%s: %w: price %q", op, ErrInvalidArgument, cat.PriceNEAR)
	}

	storage, err := decimal.NewFromString(b.cfg.StorageDeposit)
	if err != nil {
		return FunctionCall{}, fmt.Errorf("%s: %w: storage deposit %q", op, ErrInvalidArgument, b.cfg.StorageDeposit)
	}

	metadata := map[string]any{
		"title":  cat.Title,
		"copies": cat.Size,
	}
	if cat.Description != "" {
		metadata["description"] = cat.Description
	}
	if cat.Media != "" {
		metadata["media"] = cat.Media
	}

	args := map[string]any{
		"nft_contract_id": b.cfg.NFTContract,
		"price":           Yocto(price),
		"nft_seller_id":   b.cfg.SellerAccount,
		"token_id":        string(tokenID),
		"metadata":        metadata,
	}
	if cat.Size > 1 {
		args["size"] = cat.Size
	}

	return FunctionCall{
		ReceiverID: b.cfg.MarketContract,
		MethodName: "pay_and_mint_unsafe",
		Args:       args,
		Gas:        strconv.FormatUint(b.cfg.MintGas, 10),
		Deposit:    Yocto(price.Add(storage)),
	}, nil
}

// GenerateTemplate registers a ticket template with a capped supply.
func (b *Builder) GenerateTemplate(templateID domain.TemplateID, totalTickets uint64, priceNEAR string) (FunctionCall, error) {
	const op = "txn.Builder.GenerateTemplate"

	if templateID == "" {
		return FunctionCall{}, fmt.Errorf("%s: %w: empty template id", op, ErrInvalidArgument)
	}

	if totalTickets == 0 {
		return FunctionCall{}, fmt.Errorf("%s: %w: total tickets must be positive", op, ErrInvalidArgument)
	}

	price, err := decimal.NewFromString(priceNEAR)
	if err != nil || price.IsNegative() {
		return FunctionCall{}, fmt.Errorf("%s: %w: price %q", op, ErrInvalidArgument, priceNEAR)
	}

	deposit, err := nearToYocto(b.cfg.TemplateDeposit)
	if err != nil {
		return FunctionCall{}, fmt.Errorf("%s: %w", op, err)
	}

	return FunctionCall{
		ReceiverID: b.cfg.MarketContract,
		MethodName: "generate_template",
		Args: map[string]any{
			"template_id":     string(templateID),
			"total_tickets":   totalTickets,
			"price":           Yocto(price),
			"nft_contract_id": b.cfg.NFTContract,
		},
		Gas:     strconv.FormatUint(b.cfg.TemplateGas, 10),
		Deposit: deposit,
	}, nil
}

// SetAccounts assigns the sharer accounts of a multi-holder ticket.
func (b *Builder) SetAccounts(tokenID domain.TokenID, accounts []string) (FunctionCall, error) {
	const op = "txn.Builder.SetAccounts"

	if tokenID == "" {
		return FunctionCall{}, fmt.Errorf("%s: %w: empty token id", op, ErrInvalidArgument)
	}

	if len(accounts) == 0 {
		return FunctionCall{}, fmt.Errorf("%s: %w: no accounts", op, ErrInvalidArgument)
	}

	for _, a := range accounts {
		if a == "" {
			return FunctionCall{}, fmt.Errorf("%s: %w: empty account id", op, ErrInvalidArgument)
		}
	}

	deposit, err := nearToYocto(b.cfg.AccountsDeposit)
	if err != nil {
		return FunctionCall{}, fmt.Errorf("%s: %w", op, err)
	}

	return FunctionCall{
		ReceiverID: b.cfg.NFTContract,
		MethodName: "set_accounts",
		Args: map[string]any{
			"token_id":       string(tokenID),
			"share_accounts": accounts,
		},
		Gas:     strconv.FormatUint(b.cfg.AccountsGas, 10),
		Deposit: deposit,
	}, nil
}

// NFTApprove lets accountID (usually the market) transfer the token.
func (b *Builder) NFTApprove(tokenID domain.TokenID, accountID, msg string) (FunctionCall, error) {
	const op = "txn.Builder.NFTApprove"

	if tokenID == "" || accountID == "" {
		return FunctionCall{}, fmt.Errorf("%s: %w: token id and account id are required", op, ErrInvalidArgument)
	}

	deposit, err := nearToYocto(b.cfg.ApproveDeposit)
	if err != nil {
		return FunctionCall{}, fmt.Errorf("%s: %w", op, err)
	}

	args := map[string]any{
		"token_id":   string(tokenID),
		"account_id": accountID,
	}
	if msg != "" {
		args["msg"] = msg
	}

	return FunctionCall{
		ReceiverID: b.cfg.NFTContract,
		MethodName: "nft_approve",
		Args:       args,
		Gas:        strconv.FormatUint(b.cfg.ApproveGas, 10),
		Deposit:    deposit,
	}, nil
}

// Yocto converts an amount of NEAR to yoctoNEAR, dropping sub-yocto digits.
func Yocto(near decimal.Decimal) string {
	return near.Shift(yoctoExp).Truncate(0).StringFixed(0)
}

func nearToYocto(s string) (string, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return "", fmt.Errorf("%w: amount %q", ErrInvalidArgument, s)
	}
	return Yocto(d), nil
}
