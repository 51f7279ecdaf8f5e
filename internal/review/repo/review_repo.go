package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/frostx76/microservices-project/internal/review/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

// ReviewRepo provides data access for the reviews table using sqlx.
type ReviewRepo struct {
	db *sqlx.DB
}

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// EnsureTable creates the reviews table if not exists (idempotent). film_id and
// user_id have no foreign keys: films and profiles live in other databases.
func (r *ReviewRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS reviews (
  id BIGINT PRIMARY KEY,
  film_id BIGINT NOT NULL,
  user_id BIGINT NOT NULL,
  text TEXT NOT NULL,
  rating INT NOT NULL CHECK (rating BETWEEN 1 AND 10),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  is_approved BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_reviews_film_user ON reviews(film_id, user_id);
CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const columns = `id, film_id, user_id, text, rating, created_at, is_approved`

func (r *ReviewRepo) Create(ctx context.Context, rv *entity.Review) error {
	const q = `INSERT INTO reviews (id, film_id, user_id, text, rating, created_at, is_approved)
		VALUES (:id, :film_id, :user_id, :text, :rating, :created_at, :is_approved)`
	if _, err := r.db.NamedExecContext(ctx, q, rv); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// Get returns the review or apperr.ErrReviewNotFound.
func (r *ReviewRepo) Get(ctx context.Context, id int64) (*entity.Review, error) {
	var rv entity.Review
	if err := r.db.GetContext(ctx, &rv, `SELECT `+columns+` FROM reviews WHERE id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrReviewNotFound
		}
		return nil, err
	}
	return &rv, nil
}

// List applies every set filter with AND.
func (r *ReviewRepo) List(ctx context.Context, f entity.Filter) ([]entity.Review, error) {
	var (
		where []string
		args  []any
	)
	if f.FilmID != nil {
		args = append(args, *f.FilmID)
		where = append(where, fmt.Sprintf("film_id=$%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	q := `SELECT ` + columns + ` FROM reviews`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at, id`

	out := []entity.Review{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve sets is_approved and returns the row. Approving an approved review
// changes nothing.
func (r *ReviewRepo) Approve(ctx context.Context, id int64) (*entity.Review, error) {
	var rv entity.Review
	err := r.db.GetContext(ctx, &rv,
		`UPDATE reviews SET is_approved=true WHERE id=$1 RETURNING `+columns, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrReviewNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrReviewNotFound
	}
	return nil
}

// Count returns the number of stored reviews.
func (r *ReviewRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reviews`)
	return n, err
}
