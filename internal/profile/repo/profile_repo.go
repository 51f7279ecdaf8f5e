package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/frostx76/microservices-project/internal/profile/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
	"github.com/frostx76/microservices-project/pkg/database"
)

// ProfileRepo provides data access for the profiles table using sqlx.
type ProfileRepo struct {
	db *sqlx.DB
}

func NewProfileRepo(db *sqlx.DB) *ProfileRepo { return &ProfileRepo{db: db} }

// EnsureTable creates the profiles table if not exists (idempotent).
func (r *ProfileRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS profiles (
  id BIGINT PRIMARY KEY,
  email TEXT NOT NULL,
  full_name TEXT,
  bio VARCHAR(500),
  birthdate DATE,
  phone_number VARCHAR(20),
  address TEXT,
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email);
CREATE INDEX IF NOT EXISTS idx_profiles_is_active ON profiles(is_active);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const columns = `id, email, full_name, bio, birthdate, phone_number, address, is_active, created_at, updated_at`

// Create inserts p. A duplicate email or id is apperr.ErrEmailAlreadyRegistered.
func (r *ProfileRepo) Create(ctx context.Context, p *entity.Profile) error {
	const q = `INSERT INTO profiles (id, email, full_name, bio, birthdate, phone_number, address, is_active)
		VALUES (:id, :email, :full_name, :bio, :birthdate, :phone_number, :address, :is_active)
		RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, p)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&p.CreatedAt, &p.UpdatedAt)
	}
	if err := rows.Err(); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return errors.New("insert profile: no row returned")
}

// Get returns the profile or apperr.ErrUserNotFound.
func (r *ProfileRepo) Get(ctx context.Context, id int64) (*entity.Profile, error) {
	var p entity.Profile
	if err := r.db.GetContext(ctx, &p, `SELECT `+columns+` FROM profiles WHERE id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByEmail returns the profile or apperr.ErrUserNotFound.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	var p entity.Profile
	if err := r.db.GetContext(ctx, &p, `SELECT `+columns+` FROM profiles WHERE email=$1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns profiles ordered by id.
func (r *ProfileRepo) List(ctx context.Context, f entity.Filter) ([]entity.Profile, error) {
	var (
		where []string
		args  []any
	)
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where = append(where, fmt.Sprintf("is_active=$%d", len(args)))
	}
	q := `SELECT ` + columns + ` FROM profiles`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Skip)
	q += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	out := []entity.Profile{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes every mutable column of p.
func (r *ProfileRepo) Update(ctx context.Context, p *entity.Profile) error {
	const q = `UPDATE profiles SET email=:email, full_name=:full_name, bio=:bio, birthdate=:birthdate,
		phone_number=:phone_number, address=:address, is_active=:is_active, updated_at=NOW()
		WHERE id=:id RETURNING updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, p)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("update profile: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&p.UpdatedAt)
	}
	if err := rows.Err(); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return apperr.ErrUserNotFound
}

// Delete removes the profile; apperr.ErrUserNotFound when nothing matched.
func (r *ProfileRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

// ListIDs returns every profile id, ordered.
func (r *ProfileRepo) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM profiles ORDER BY id`); err != nil {
		return nil, err
	}
	return ids, nil
}
