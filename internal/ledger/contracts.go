package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirinyoku/nft-tix/internal/domain"
	"golang.org/x/sync/errgroup"
)

const defaultTokensLimit = 10

// Contracts holds the typed views of the market (ticket templates,
// greetings) and NFT contracts.
type Contracts struct {
	q      Querier
	market string
	nft    string
}

func NewContracts(q Querier, marketContract, nftContract string) *Contracts {
	return &Contracts{
		q:      q,
		market: marketContract,
		nft:    nftContract,
	}
}

func (c *Contracts) MarketContract() string { return c.market }
func (c *Contracts) NFTContract() string    { return c.nft }

func (c *Contracts) TicketsLeft(ctx context.Context, templateID domain.TemplateID) (uint64, error) {
	const op = "ledger.Contracts.TicketsLeft"

	raw, err := c.q.Query(ctx, c.market, "get_tickets_left", map[string]any{
		"template_id": string(templateID),
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := decodeUint(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (c *Contracts) TotalTickets(ctx context.Context, templateID domain.TemplateID) (uint64, error) {
	const op = "ledger.Contracts.TotalTickets"

	raw, err := c.q.Query(ctx, c.market, "get_total_tickets", map[string]any{
		"template_id": string(templateID),
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := decodeUint(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// TicketCounts reads both counters of a template concurrently.
func (c *Contracts) TicketCounts(ctx context.Context, templateID domain.TemplateID) (domain.TicketCounts, error) {
	counts := domain.TicketCounts{TemplateID: templateID}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := c.TicketsLeft(gCtx, templateID)
		counts.TicketsLeft = n
		return err
	})

	g.Go(func() error {
		n, err := c.TotalTickets(gCtx, templateID)
		counts.TotalTickets = n
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.TicketCounts{}, err
	}

	return counts, nil
}

// TokenByID returns ErrTokenNotFound when the contract answers null.
func (c *Contracts) TokenByID(ctx context.Context, tokenID domain.TokenID) (*domain.Token, error) {
	const op = "ledger.Contracts.TokenByID"

	raw, err := c.q.Query(ctx, c.nft, "nft_token", map[string]any{
		"token_id": string(tokenID),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if isNull(raw) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
	}

	var t domain.Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrMalformedResult, err)
	}

	return &t, nil
}

func (c *Contracts) TokensForOwner(ctx context.Context, accountID string, limit int) ([]domain.Token, error) {
	const op = "ledger.Contracts.TokensForOwner"

	if limit <= 0 {
		limit = defaultTokensLimit
	}

	raw, err := c.q.Query(ctx, c.nft, "nft_tokens_for_owner", map[string]any{
		"account_id": accountID,
		"limit":      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tokens := []domain.Token{}
	if isNull(raw) {
		return tokens, nil
	}

	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrMalformedResult, err)
	}

	return tokens, nil
}

func (c *Contracts) Greeting(ctx context.Context, accountID string) (string, error) {
	const op = "ledger.Contracts.Greeting"

	s, err := c.stringView(ctx, "get_greeting", accountID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (c *Contracts) OthersSetGreeting(ctx context.Context, accountID string) (string, error) {
	const op = "ledger.Contracts.OthersSetGreeting"

	s, err := c.stringView(ctx, "get_others_set_greeting", accountID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (c *Contracts) stringView(ctx context.Context, method, accountID string) (string, error) {
	raw, err := c.q.Query(ctx, c.market, method, map[string]any{
		"account_id": accountID,
	})
	if err != nil {
		return "", err
	}

	return decodeString(raw), nil
}

// decodeUint accepts a JSON number or a quoted number (U64 views).
func decodeUint(raw []byte) (uint64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an unsigned integer", ErrMalformedResult, truncate(raw, 64))
	}

	return n, nil
}

// decodeString unquotes a JSON string result; anything else is returned verbatim.
func decodeString(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func isNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
