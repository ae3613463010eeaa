package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/observability"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// IsUniqueViolation reports whether err is a Postgres 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := r.observe("users.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, name, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			u.ID, u.Email, u.PasswordHash, u.Name, u.CreatedAt, u.UpdatedAt,
		)
		return e
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return err
	}

	return nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, email, password_hash, name, created_at, updated_at
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, email, password_hash, name, created_at, updated_at
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// ExistingIDs reports which of the given ids have a user row, in one round
// trip. Used to classify bulk collaborator requests.
func (r *UsersRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))

	if len(ids) == 0 {
		return out, nil
	}

	var rows pgx.Rows
	var err error

	err = r.observe("users.existing_ids", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT id FROM users WHERE id = ANY($1)`,
			ids,
		)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var id string

		if e := rows.Scan(&id); e != nil {
			return nil, e
		}
		out[id] = true
	}

	return out, rows.Err()
}

// List returns the user directory. The hash column is not selected at all so
// directory payloads can never leak it.
func (r *UsersRepo) List(ctx context.Context) (users []user.User, err error) {
	var rows pgx.Rows

	err = r.observe("users.list", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT id, email, name, created_at, updated_at
			 FROM users
			 ORDER BY created_at ASC, id ASC`,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	users = make([]user.User, 0)

	for rows.Next() {
		var u user.User

		e := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)

		if e != nil {
			err = e
			return
		}
		users = append(users, u)
	}

	err = rows.Err()

	return
}
