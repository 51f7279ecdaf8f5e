package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frostx76/microservices-project/internal/film/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

// FilmRepo provides data access for the films table using sqlx.
type FilmRepo struct {
	db *sqlx.DB
}

func NewFilmRepo(db *sqlx.DB) *FilmRepo { return &FilmRepo{db: db} }

// EnsureTable creates the films table if not exists (idempotent).
func (r *FilmRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS films (
  id BIGINT PRIMARY KEY,
  title TEXT NOT NULL,
  director TEXT NOT NULL,
  year INT NOT NULL CHECK (year > 1900),
  rating DOUBLE PRECISION NOT NULL CHECK (rating >= 0 AND rating <= 10),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_films_title ON films(lower(title));
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const columns = `id, title, director, year, rating, created_at, updated_at`

func (r *FilmRepo) Create(ctx context.Context, f *entity.Film) error {
	const q = `INSERT INTO films (id, title, director, year, rating)
		VALUES (:id, :title, :director, :year, :rating) RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, f)
	if err != nil {
		return fmt.Errorf("insert film: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&f.CreatedAt, &f.UpdatedAt)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("insert film: %w", err)
	}
	return errors.New("insert film: no row returned")
}

// Get returns the film or apperr.ErrFilmNotFound.
func (r *FilmRepo) Get(ctx context.Context, id int64) (*entity.Film, error) {
	var f entity.Film
	if err := r.db.GetContext(ctx, &f, `SELECT `+columns+` FROM films WHERE id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrFilmNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *FilmRepo) List(ctx context.Context, flt entity.Filter) ([]entity.Film, error) {
	out := []entity.Film{}
	var err error
	if flt.Title != "" {
		err = r.db.SelectContext(ctx, &out,
			`SELECT `+columns+` FROM films WHERE title ILIKE '%' || $1 || '%' ORDER BY id LIMIT $2 OFFSET $3`,
			flt.Title, flt.Limit, flt.Skip)
	} else {
		err = r.db.SelectContext(ctx, &out,
			`SELECT `+columns+` FROM films ORDER BY id LIMIT $1 OFFSET $2`, flt.Limit, flt.Skip)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the writable columns; apperr.ErrFilmNotFound when id is unknown.
func (r *FilmRepo) Update(ctx context.Context, f *entity.Film) error {
	const q = `UPDATE films SET title=:title, director=:director, year=:year, rating=:rating, updated_at=NOW()
		WHERE id=:id RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, f)
	if err != nil {
		return fmt.Errorf("update film: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&f.CreatedAt, &f.UpdatedAt)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("update film: %w", err)
	}
	return apperr.ErrFilmNotFound
}

func (r *FilmRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM films WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrFilmNotFound
	}
	return nil
}
