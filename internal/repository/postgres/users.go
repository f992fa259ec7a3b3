package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/nft-tix/internal/domain"
)

type UserRepo struct {
	db DB
}

// Create returns repository.ErrConflict if the account is already registered.
func (r *UserRepo) Create(ctx context.Context, accountID string) (domain.User, error) {
	const op = "postgresrepo.UserRepo.Create"

	u := domain.User{AccountID: accountID}
	if err := r.db.QueryRow(ctx,
		`INSERT INTO users(account_id)
		 VALUES ($1)
		 RETURNING created_at`,
		accountID,
	).Scan(&u.CreatedAt); err != nil {
		return domain.User{}, wrapDBErr(op, err)
	}

	return u, nil
}

func (r *UserRepo) Get(ctx context.Context, accountID string) (domain.User, error) {
	const op = "postgresrepo.UserRepo.Get"

	u := domain.User{AccountID: accountID}
	if err := r.db.QueryRow(ctx,
		`SELECT created_at FROM users WHERE account_id = $1`,
		accountID,
	).Scan(&u.CreatedAt); err != nil {
		return domain.User{}, wrapDBErr(op, err)
	}

	return u, nil
}

// List pages through users ordered by registration time.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	const op = "postgresrepo.UserRepo.List"

	rows, err := r.db.Query(ctx,
		`SELECT account_id, created_at
		   FROM users
		  ORDER BY created_at, account_id
		  LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		var u domain.User
		err := row.Scan(&u.AccountID, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return users, nil
}
