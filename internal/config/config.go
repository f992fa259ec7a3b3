package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Tickets  TicketsConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Host string
	Port int
	// AdminSecret signs the HS256 bearer tokens the /admin routes accept.
	// Empty disables those routes.
	AdminSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// DSN renders the pgx connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type LedgerConfig struct {
	NodeURL        string
	MarketContract string
	NFTContract    string
	SellerAccount  string
	Timeout        time.Duration
	MaxRetries     int
}

type TicketsConfig struct {
	MoviePriceNEAR     string
	EntrancePriceNEAR  string
	MovieSize          int
	EntranceSize       int
	PurchaseRateLimit  int
	PurchaseRateWindow time.Duration
}

type CacheConfig struct {
	TokenTTL time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host:        strEnv("SERVER_HOST", "localhost"),
		Port:        serverPort,
		AdminSecret: os.Getenv("ADMIN_JWT_SECRET"),
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     strEnv("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  strEnv("POSTGRES_SSLMODE", "disable"),
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     strEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	ledgerTimeout, err := durationEnv("LEDGER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ledgerRetries, err := intEnv("LEDGER_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ledgerCfg := LedgerConfig{
		NodeURL:        strEnv("LEDGER_NODE_URL", "https://rpc.testnet.near.org/"),
		MarketContract: strEnv("LEDGER_MARKET_CONTRACT", "greeter.wabinab.testnet"),
		NFTContract:    strEnv("LEDGER_NFT_CONTRACT", "zoo_nft.wabinab.testnet"),
		SellerAccount:  strEnv("LEDGER_SELLER_ACCOUNT", "wabinab.testnet"),
		Timeout:        ledgerTimeout,
		MaxRetries:     ledgerRetries,
	}

	movieSize, err := intEnv("TICKETS_MOVIE_SIZE", 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entranceSize, err := intEnv("TICKETS_ENTRANCE_SIZE", 3)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateLimit, err := intEnv("TICKETS_PURCHASE_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateWindow, err := durationEnv("TICKETS_PURCHASE_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ticketsCfg := TicketsConfig{
		MoviePriceNEAR:     strEnv("TICKETS_MOVIE_PRICE_NEAR", "1"),
		EntrancePriceNEAR:  strEnv("TICKETS_ENTRANCE_PRICE_NEAR", "2"),
		MovieSize:          movieSize,
		EntranceSize:       entranceSize,
		PurchaseRateLimit:  rateLimit,
		PurchaseRateWindow: rateWindow,
	}

	tokenTTL, err := durationEnv("CACHE_TOKEN_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Ledger:   ledgerCfg,
		Tickets:  ticketsCfg,
		Cache:    CacheConfig{TokenTTL: tokenTTL},
	}, nil
}

func strEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}
