package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frostx76/microservices-project/internal/account/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
	"github.com/frostx76/microservices-project/pkg/database"
)

// AccountRepo provides data access for the accounts table using sqlx.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// EnsureTable creates the accounts table if not exists (idempotent).
// email is plain TEXT: lookups are case-sensitive.
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
  id BIGINT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new account. A unique violation on email becomes
// apperr.ErrEmailAlreadyRegistered; this is what settles concurrent registrations.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	const q = `INSERT INTO accounts (id, email, password_hash, is_active)
		VALUES (:id, :email, :password_hash, :is_active) RETURNING created_at`
	rows, err := r.db.NamedQueryContext(ctx, q, a)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("insert account: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&a.CreatedAt)
	}
	if err := rows.Err(); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return errors.New("insert account: no row returned")
}

// GetByEmail returns the account or apperr.ErrAccountNotFound.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	const q = `SELECT id, email, password_hash, is_active, created_at FROM accounts WHERE email=$1`
	var a entity.Account
	if err := r.db.GetContext(ctx, &a, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// DeleteByEmail removes the account; apperr.ErrAccountNotFound when nothing matched.
func (r *AccountRepo) DeleteByEmail(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE email=$1`, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrAccountNotFound
	}
	return nil
}

// List returns every account ordered by id. PasswordHash is left empty.
func (r *AccountRepo) List(ctx context.Context) ([]entity.Account, error) {
	var out []entity.Account
	const q = `SELECT id, email, is_active, created_at FROM accounts ORDER BY id`
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes the account; apperr.ErrAccountNotFound when nothing matched.
func (r *AccountRepo) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrAccountNotFound
	}
	return nil
}

// Count returns how many accounts carry email (0 or 1 given the unique index).
func (r *AccountRepo) Count(ctx context.Context, email string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM accounts WHERE email=$1`, email)
	return n, err
}
