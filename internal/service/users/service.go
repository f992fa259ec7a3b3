package users

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/kirinyoku/nft-tix/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	profileTokens   = 10
)

// accountIDRe is the ledger's account id grammar.
var accountIDRe = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

type Repo interface {
	Create(ctx context.Context, accountID string) (domain.User, error)
	Get(ctx context.Context, accountID string) (domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type LedgerViews interface {
	Greeting(ctx context.Context, accountID string) (string, error)
	OthersSetGreeting(ctx context.Context, accountID string) (string, error)
	TokensForOwner(ctx context.Context, accountID string, limit int) ([]domain.Token, error)
}

type Profile struct {
	User           domain.User    `json:"user"`
	GravatarURL    string         `json:"gravatar_url"`
	Greeting       string         `json:"greeting"`
	OthersGreeting string         `json:"others_greeting"`
	Tokens         []domain.Token `json:"tokens"`
}

type Service struct {
	repo   Repo
	ledger LedgerViews
}

func New(repo Repo, ledger LedgerViews) *Service {
	return &Service{repo: repo, ledger: ledger}
}

func (s *Service) Register(ctx context.Context, accountID string) (domain.User, error) {
	const op = "service.users.Register"

	if !ValidAccountID(accountID) {
		return domain.User{}, fmt.Errorf("%s: %w: %q", op, ErrInvalidAccount, accountID)
	}

	u, err := s.repo.Create(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.User{}, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	const op = "service.users.List"

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// Profile gathers a registered user's page: avatar, both greetings and
// the first tokens they own. The three ledger views are read concurrently.
func (s *Service) Profile(ctx context.Context, accountID string) (Profile, error) {
	const op = "service.users.Profile"

	u, err := s.repo.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	p := Profile{User: u, GravatarURL: GravatarURL(accountID)}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		greeting, err := s.ledger.Greeting(gCtx, accountID)
		p.Greeting = greeting
		return err
	})

	g.Go(func() error {
		others, err := s.ledger.OthersSetGreeting(gCtx, accountID)
		p.OthersGreeting = others
		return err
	})

	g.Go(func() error {
		tokens, err := s.ledger.TokensForOwner(gCtx, accountID, profileTokens)
		p.Tokens = tokens
		return err
	})

	if err := g.Wait(); err != nil {
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func ValidAccountID(id string) bool {
	return len(id) >= 2 && len(id) <= 64 && accountIDRe.MatchString(id)
}

// GravatarURL is the identicon avatar for an account.
func GravatarURL(accountID string) string {
	sum := md5.Sum([]byte(accountID))
	return "https://secure.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon&r=PG"
}
