package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/nft-tix/internal/config"
	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/kirinyoku/nft-tix/internal/ledger"
	"github.com/kirinyoku/nft-tix/internal/postgres"
	redisx "github.com/kirinyoku/nft-tix/internal/redis"
	postgresrepo "github.com/kirinyoku/nft-tix/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/nft-tix/internal/repository/redis"
	"github.com/kirinyoku/nft-tix/internal/service"
	"github.com/kirinyoku/nft-tix/internal/service/cards"
	"github.com/kirinyoku/nft-tix/internal/service/tickets"
	"github.com/kirinyoku/nft-tix/internal/service/users"
	"github.com/kirinyoku/nft-tix/internal/tokenid"
	httpgin "github.com/kirinyoku/nft-tix/internal/transport/http/gin"
	"github.com/kirinyoku/nft-tix/internal/txn"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// App owns every long-lived collaborator. Nothing below it reaches for
// globals; handlers get what they need through the services.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *redis.Client
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(ctx, redisx.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	// Ledger
	rpc := ledger.NewClient(ledger.Config{
		Endpoint:   cfg.Ledger.NodeURL,
		Timeout:    cfg.Ledger.Timeout,
		MaxRetries: cfg.Ledger.MaxRetries,
	})
	contracts := ledger.NewContracts(rpc, cfg.Ledger.MarketContract, cfg.Ledger.NFTContract)

	calls := txn.NewBuilder(txn.Config{
		MarketContract: cfg.Ledger.MarketContract,
		NFTContract:    cfg.Ledger.NFTContract,
		SellerAccount:  cfg.Ledger.SellerAccount,
	})

	// Redis-backed stores
	cache := redisrepo.New(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(
		rdb,
		redisrepo.KeyRateLimit("purchase"),
		cfg.Tickets.PurchaseRateLimit,
		cfg.Tickets.PurchaseRateWindow,
	)
	idem := redisrepo.NewIdempotencyStore(rdb, 24*time.Hour)

	services := &service.Services{
		Tickets: tickets.New(contracts, tokenid.New(), calls, limiter, idem, logger, tickets.Config{
			Categories: Categories(cfg.Tickets),
		}),
		Cards: cards.New(contracts, cache, calls, cards.Config{
			TokenTTL:        cfg.Cache.TokenTTL,
			DefaultApprovee: cfg.Ledger.MarketContract,
		}),
		Users: users.New(store.Users(), contracts),
	}

	router := httpgin.NewRouter(services, logger, cfg.Server.AdminSecret)

	return &App{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		rdb:    rdb,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Categories are the two ticket kinds the site sells.
func Categories(cfg config.TicketsConfig) []domain.Category {
	return []domain.Category{
		{
			Slug:        "movie",
			Title:       "Movie ticket",
			Prefix:      "movie_ticket",
			TemplateID:  "movie_tickets",
			PriceNEAR:   cfg.MoviePriceNEAR,
			Size:        cfg.MovieSize,
			Description: "Admits one to the screening.",
		},
		{
			Slug:        "entrance",
			Title:       "Entrance ticket",
			Prefix:      "entrance",
			TemplateID:  "entrance_tickets",
			PriceNEAR:   cfg.EntrancePriceNEAR,
			Size:        cfg.EntranceSize,
			Description: "Shared entrance pass; the owner assigns the other holders.",
		},
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.pool.Close()
	defer a.rdb.Close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
