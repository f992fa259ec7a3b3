package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/nft-tix/internal/availability"
	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/kirinyoku/nft-tix/internal/metrics"
	redisrepo "github.com/kirinyoku/nft-tix/internal/repository/redis"
	"github.com/kirinyoku/nft-tix/internal/tokenid"
	"github.com/kirinyoku/nft-tix/internal/txn"
	"golang.org/x/sync/errgroup"
)

type CountsReader interface {
	TicketCounts(ctx context.Context, templateID domain.TemplateID) (domain.TicketCounts, error)
}

type CallBuilder interface {
	PayAndMint(cat domain.Category, tokenID domain.TokenID) (txn.FunctionCall, error)
	GenerateTemplate(templateID domain.TemplateID, totalTickets uint64, priceNEAR string) (txn.FunctionCall, error)
}

type Limiter interface {
	Allow(ctx context.Context, subject string) (allowed bool, retryAfter time.Duration, err error)
}

type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, payload string) error
	GetResult(ctx context.Context, key string) (string, bool, error)
	Release(ctx context.Context, key string) error
}

type Config struct {
	Categories         []domain.Category
	IdempotencyLockTTL time.Duration
}

// Availability is what the purchase button needs: the ledger counters and
// the verdict derived from them.
type Availability struct {
	Category domain.Category     `json:"category"`
	Counts   domain.TicketCounts `json:"counts"`
	SoldOut  bool                `json:"sold_out"`
	Disabled string              `json:"disabled"`
}

type PurchasePage struct {
	Availability
	TokenID domain.TokenID `json:"token_id"`
}

type PurchaseRequest struct {
	Category string
	// Client is the rate limiter subject, e.g. "ip:10.0.0.1". Empty disables limiting.
	Client         string
	IdempotencyKey string
}

// PurchaseIntent is a token id reserved for one purchase plus the call the
// wallet signs to mint it.
type PurchaseIntent struct {
	TokenID domain.TokenID      `json:"token_id"`
	Call    txn.FunctionCall    `json:"call"`
	Counts  domain.TicketCounts `json:"counts"`
}

type TemplateRequest struct {
	TemplateID   domain.TemplateID
	TotalTickets uint64
	PriceNEAR    string
}

type Service struct {
	ledger  CountsReader
	ids     tokenid.IDGenerator
	calls   CallBuilder
	limiter Limiter
	idem    IdempotencyStore
	logger  *slog.Logger
	cfg     Config

	categories map[string]domain.Category
}

func New(
	ledger CountsReader,
	ids tokenid.IDGenerator,
	calls CallBuilder,
	limiter Limiter,
	idem IdempotencyStore,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.IdempotencyLockTTL <= 0 {
		cfg.IdempotencyLockTTL = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	categories := make(map[string]domain.Category, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories[c.Slug] = c
	}

	return &Service{
		ledger:     ledger,
		ids:        ids,
		calls:      calls,
		limiter:    limiter,
		idem:       idem,
		logger:     logger,
		cfg:        cfg,
		categories: categories,
	}
}

func (s *Service) Category(slug string) (domain.Category, error) {
	c, ok := s.categories[slug]
	if !ok {
		return domain.Category{}, fmt.Errorf("%s: %w", slug, ErrCategoryNotFound)
	}
	return c, nil
}

// Catalogue returns every category with fresh counters, in configuration
// order. Counters are read concurrently; one failed read fails the whole
// catalogue.
func (s *Service) Catalogue(ctx context.Context) ([]Availability, error) {
	const op = "service.tickets.Catalogue"

	out := make([]Availability, len(s.cfg.Categories))

	g, gCtx := errgroup.WithContext(ctx)
	for i, c := range s.cfg.Categories {
		g.Go(func() error {
			a, err := s.availability(gCtx, c)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Availability reads the counters of one category from the ledger.
//
// Parameters:
//   - ctx: request-scoped context.
//   - slug: category slug, e.g. "movie".
//
// Returns:
//   - Availability: counters with the sold out verdict.
//   - error: tickets.ErrCategoryNotFound for an unknown slug, ledger.ErrUnavailable
//     when the counters could not be read.
func (s *Service) Availability(ctx context.Context, slug string) (Availability, error) {
	const op = "service.tickets.Availability"

	c, err := s.Category(slug)
	if err != nil {
		return Availability{}, fmt.Errorf("%s: %w", op, err)
	}

	a, err := s.availability(ctx, c)
	if err != nil {
		return Availability{}, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// PurchasePage is the data of a category's purchase page: counters and a
// token id for the mint button. The id is not reserved anywhere; if the
// user never buys, it is simply dropped.
func (s *Service) PurchasePage(ctx context.Context, slug string) (PurchasePage, error) {
	const op = "service.tickets.PurchasePage"

	a, err := s.Availability(ctx, slug)
	if err != nil {
		return PurchasePage{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.newTokenID(a.Category)
	if err != nil {
		return PurchasePage{}, fmt.Errorf("%s: %w", op, err)
	}

	return PurchasePage{Availability: a, TokenID: id}, nil
}

// CreatePurchaseIntent prepares the pay_and_mint_unsafe call for a new
// token of the category.
//
// A request carrying an idempotency key that already succeeded gets the
// saved intent back with replayed=true, so a retried request never mints
// under a second token id.
//
// Returns:
//   - error: tickets.ErrCategoryNotFound, tickets.ErrSoldOut,
//     *tickets.RateLimitError (wraps tickets.ErrRateLimited),
//     tickets.ErrPurchaseInProgress, *tokenid.GenerationError or
//     ledger.ErrUnavailable.
func (s *Service) CreatePurchaseIntent(ctx context.Context, req PurchaseRequest) (intent PurchaseIntent, replayed bool, err error) {
	const op = "service.tickets.CreatePurchaseIntent"

	c, err := s.Category(req.Category)
	if err != nil {
		return PurchaseIntent{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var idemKey string
	if s.idem != nil && req.IdempotencyKey != "" {
		idemKey = redisrepo.KeyIdemPurchase(c.Slug, req.Client, req.IdempotencyKey)

		saved, ok, rErr := s.replay(ctx, idemKey)
		if rErr != nil {
			return PurchaseIntent{}, false, fmt.Errorf("%s: %w", op, rErr)
		}
		if ok {
			return saved, true, nil
		}

		locked, lErr := s.idem.AcquireLock(ctx, idemKey, s.cfg.IdempotencyLockTTL)
		if lErr != nil {
			return PurchaseIntent{}, false, fmt.Errorf("%s: %w", op, lErr)
		}
		if !locked {
			// lost the race against a request that may have just finished
			if saved, ok, rErr := s.replay(ctx, idemKey); rErr == nil && ok {
				return saved, true, nil
			}
			return PurchaseIntent{}, false, fmt.Errorf("%s: %w", op, ErrPurchaseInProgress)
		}

		defer func() {
			if err != nil {
				_ = s.idem.Release(context.WithoutCancel(ctx), idemKey)
			}
		}()
	}

	intent, err = s.createIntent(ctx, c, req.Client)
	if err != nil {
		metrics.PurchaseIntent(c.Slug, outcome(err))
		return PurchaseIntent{}, false, fmt.Errorf("%s: %w", op, err)
	}
	metrics.PurchaseIntent(c.Slug, "created")

	if idemKey != "" {
		s.saveIntent(ctx, idemKey, intent)
	}

	return intent, false, nil
}

// saveIntent stores intent under key for replays. When it cannot, the lock
// is dropped so a retry runs again instead of waiting out the lock TTL.
func (s *Service) saveIntent(ctx context.Context, key string, intent PurchaseIntent) {
	b, err := json.Marshal(intent)
	if err == nil {
		err = s.idem.SaveResult(ctx, key, string(b))
	}
	if err == nil {
		return
	}

	s.logger.Warn("saving idempotent purchase result", "key", key, "error", err)

	if rErr := s.idem.Release(context.WithoutCancel(ctx), key); rErr != nil {
		s.logger.Error("releasing idempotency lock", "key", key, "error", rErr)
	}
}

func (s *Service) createIntent(ctx context.Context, c domain.Category, client string) (PurchaseIntent, error) {
	if s.limiter != nil && client != "" {
		allowed, retry, err := s.limiter.Allow(ctx, client)
		if err != nil {
			return PurchaseIntent{}, err
		}
		if !allowed {
			metrics.RateLimited("purchase")
			s.logger.Info("purchase rate limited", "client", client, "retry_after", retry)
			return PurchaseIntent{}, &RateLimitError{RetryAfter: retry}
		}
	}

	a, err := s.availability(ctx, c)
	if err != nil {
		return PurchaseIntent{}, err
	}

	if a.SoldOut {
		return PurchaseIntent{}, ErrSoldOut
	}

	id, err := s.newTokenID(c)
	if err != nil {
		return PurchaseIntent{}, err
	}

	call, err := s.calls.PayAndMint(c, id)
	if err != nil {
		return PurchaseIntent{}, err
	}

	return PurchaseIntent{TokenID: id, Call: call, Counts: a.Counts}, nil
}

func (s *Service) replay(ctx context.Context, key string) (PurchaseIntent, bool, error) {
	payload, ok, err := s.idem.GetResult(ctx, key)
	if err != nil || !ok {
		return PurchaseIntent{}, false, err
	}

	var saved PurchaseIntent
	if err := json.Unmarshal([]byte(payload), &saved); err != nil {
		return PurchaseIntent{}, false, fmt.Errorf("decoding saved purchase: %w", err)
	}

	return saved, true, nil
}

// TemplateCall prepares generate_template for an admin registering a new
// ticket class.
func (s *Service) TemplateCall(req TemplateRequest) (txn.FunctionCall, error) {
	const op = "service.tickets.TemplateCall"

	call, err := s.calls.GenerateTemplate(req.TemplateID, req.TotalTickets, req.PriceNEAR)
	if err != nil {
		if errors.Is(err, txn.ErrInvalidArgument) {
			return txn.FunctionCall{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidTemplate, err)
		}
		return txn.FunctionCall{}, fmt.Errorf("%s: %w", op, err)
	}

	return call, nil
}

func (s *Service) availability(ctx context.Context, c domain.Category) (Availability, error) {
	counts, err := s.ledger.TicketCounts(ctx, c.TemplateID)
	if err != nil {
		s.logger.Warn("reading ticket counts", "template_id", c.TemplateID, "error", err)
		return Availability{}, err
	}

	soldOut := availability.Counts(counts)

	return Availability{
		Category: c,
		Counts:   counts,
		SoldOut:  soldOut,
		Disabled: availability.DisabledAttr(soldOut),
	}, nil
}

func (s *Service) newTokenID(c domain.Category) (domain.TokenID, error) {
	id, err := s.ids.Generate(c.Prefix)
	if err != nil {
		s.logger.Error("generating token id", "prefix", c.Prefix, "error", err)
		return "", err
	}

	metrics.TokenIDGenerated(c.Prefix)

	return domain.TokenID(id), nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrSoldOut):
		return "sold_out"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
