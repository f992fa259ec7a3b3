package cards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/nft-tix/internal/availability"
	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/kirinyoku/nft-tix/internal/ledger"
	redisrepo "github.com/kirinyoku/nft-tix/internal/repository/redis"
	"github.com/kirinyoku/nft-tix/internal/txn"
	"github.com/skip2/go-qrcode"
)

const (
	RoleOwner  = "owner"
	RoleSharer = "sharer"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

type TokenReader interface {
	TokenByID(ctx context.Context, tokenID domain.TokenID) (*domain.Token, error)
}

type CallBuilder interface {
	SetAccounts(tokenID domain.TokenID, accounts []string) (txn.FunctionCall, error)
	NFTApprove(tokenID domain.TokenID, accountID, msg string) (txn.FunctionCall, error)
}

type Config struct {
	TokenTTL time.Duration
	// DefaultApprovee is approved when the request names no account,
	// normally the market contract.
	DefaultApprovee string
}

// Card is a token as the card page shows it.
type Card struct {
	Token     domain.Token            `json:"token"`
	ShareList availability.Visibility `json:"share_list"`
	// ShareListHidden is the ready-made attribute value for the share list.
	ShareListHidden string `json:"share_list_hidden"`
	Viewer          string `json:"viewer,omitempty"`
	Role            string `json:"role"`
	TicketsUnused   int    `json:"tickets_unused"`
}

type Service struct {
	tokens TokenReader
	cache  *redisrepo.Cache
	calls  CallBuilder
	cfg    Config
}

// New builds the service; cache may be nil, in which case every lookup
// goes to the ledger.
func New(tokens TokenReader, cache *redisrepo.Cache, calls CallBuilder, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Second
	}

	return &Service{
		tokens: tokens,
		cache:  cache,
		calls:  calls,
		cfg:    cfg,
	}
}

// GetCard loads a token and decides how its page renders for viewer.
func (s *Service) GetCard(ctx context.Context, tokenID domain.TokenID, viewer string) (Card, error) {
	const op = "service.cards.GetCard"

	t, err := s.token(ctx, tokenID)
	if err != nil {
		return Card{}, fmt.Errorf("%s: %w", op, err)
	}

	vis := availability.ForShareList(len(t.SharedOwners))

	role := RoleSharer
	if viewer != "" && viewer == t.OwnerID {
		role = RoleOwner
	}

	unused := 0
	for _, used := range t.TicketUsed {
		if !used {
			unused++
		}
	}

	return Card{
		Token:           t,
		ShareList:       vis,
		ShareListHidden: vis.HiddenAttr(),
		Viewer:          viewer,
		Role:            role,
		TicketsUnused:   unused,
	}, nil
}

// ShareCall prepares set_accounts for a minted token. The contract replaces
// the share list slot for slot, so accounts must fill exactly the slots the
// token already has.
func (s *Service) ShareCall(ctx context.Context, tokenID domain.TokenID, accounts []string) (txn.FunctionCall, error) {
	const op = "service.cards.ShareCall"

	t, err := s.token(ctx, tokenID)
	if err != nil {
		return txn.FunctionCall{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(t.SharedOwners) == 0 {
		return txn.FunctionCall{}, fmt.Errorf("%s: %w: token %s is not shareable", op, ErrInvalidCall, tokenID)
	}

	if len(accounts) != len(t.SharedOwners) {
		return txn.FunctionCall{}, fmt.Errorf("%s: %w: token %s has %d share slots, got %d accounts",
			op, ErrInvalidCall, tokenID, len(t.SharedOwners), len(accounts))
	}

	call, err := s.calls.SetAccounts(tokenID, accounts)
	if err != nil {
		return txn.FunctionCall{}, fmt.Errorf("%s: %w", op, invalid(err))
	}

	return call, nil
}

// ApproveCall prepares nft_approve. An empty accountID approves the
// configured default account.
func (s *Service) ApproveCall(ctx context.Context, tokenID domain.TokenID, accountID, msg string) (txn.FunctionCall, error) {
	const op = "service.cards.ApproveCall"

	if accountID == "" {
		accountID = s.cfg.DefaultApprovee
	}

	if _, err := s.token(ctx, tokenID); err != nil {
		return txn.FunctionCall{}, fmt.Errorf("%s: %w", op, err)
	}

	call, err := s.calls.NFTApprove(tokenID, accountID, msg)
	if err != nil {
		return txn.FunctionCall{}, fmt.Errorf("%s: %w", op, invalid(err))
	}

	return call, nil
}

// checkInPayload is what the door scanner reads back out of a card's QR code.
type checkInPayload struct {
	TokenID domain.TokenID `json:"token_id"`
	OwnerID string         `json:"owner_id"`
	Holders int            `json:"holders"`
}

// QRCode renders the card's check-in code as a PNG of size x size pixels.
// A zero size picks the default; other sizes are clamped.
func (s *Service) QRCode(ctx context.Context, tokenID domain.TokenID, size int) ([]byte, error) {
	const op = "service.cards.QRCode"

	t, err := s.token(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case size == 0:
		size = defaultQRSize
	case size < minQRSize:
		size = minQRSize
	case size > maxQRSize:
		size = maxQRSize
	}

	payload, err := json.Marshal(checkInPayload{
		TokenID: t.TokenID,
		OwnerID: t.OwnerID,
		Holders: len(t.SharedOwners) + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", op, err)
	}

	return png, nil
}

// Refresh forgets the cached token so the next read hits the ledger.
func (s *Service) Refresh(ctx context.Context, tokenID domain.TokenID) error {
	const op = "service.cards.Refresh"

	if s.cache == nil {
		return nil
	}

	if err := s.cache.InvalidateToken(ctx, string(tokenID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) token(ctx context.Context, tokenID domain.TokenID) (domain.Token, error) {
	load := func(ctx context.Context) (domain.Token, error) {
		t, err := s.tokens.TokenByID(ctx, tokenID)
		if err != nil {
			return domain.Token{}, err
		}
		return *t, nil
	}

	var (
		t   domain.Token
		err error
	)
	if s.cache != nil {
		t, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyToken(string(tokenID)), s.cfg.TokenTTL, load)
	} else {
		t, err = load(ctx)
	}

	if errors.Is(err, ledger.ErrTokenNotFound) {
		return domain.Token{}, fmt.Errorf("%s: %w", tokenID, ErrCardNotFound)
	}

	return t, err
}

func invalid(err error) error {
	if errors.Is(err, txn.ErrInvalidArgument) {
		return fmt.Errorf("%w: %w", ErrInvalidCall, err)
	}
	return err
}
